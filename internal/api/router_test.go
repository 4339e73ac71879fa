package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rl-arena/arena-matchmaker/internal/lobby"
	"github.com/rl-arena/arena-matchmaker/internal/models"
	"github.com/rl-arena/arena-matchmaker/internal/repository"
	"github.com/rl-arena/arena-matchmaker/internal/service"
	"github.com/rl-arena/arena-matchmaker/internal/websocket"
	"github.com/rl-arena/arena-matchmaker/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router *gin.Engine
	svc    *service.MatchmakingService
	hub    *websocket.Hub
	lobby  *lobby.Directory
}

func newTestAPI(t *testing.T, config service.MatchmakingConfig, limiter ratelimit.Limiter) *testAPI {
	t.Helper()

	hub := websocket.NewHub(nil)
	svc := service.NewMatchmakingService(config, hub, nil)
	svc.SetScheduler(func(time.Duration, func()) {})
	directory := lobby.NewDirectory()

	router := SetupRouter(Dependencies{
		Matchmaking:    svc,
		Stats:          service.NewStatsService(repository.NewMemoryStatsRepository(), nil),
		Lobby:          directory,
		Hub:            hub,
		EnqueueLimiter: limiter,
		AllowedOrigins: []string{"*"},
	})

	go hub.Run()
	t.Cleanup(hub.Stop)

	return &testAPI{router: router, svc: svc, hub: hub, lobby: directory}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func smallConfig() service.MatchmakingConfig {
	cfg := service.DefaultMatchmakingConfig()
	cfg.MatchSize = 2
	return cfg
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t, smallConfig(), nil)

	w, body := a.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestMatchmakingFlow(t *testing.T) {
	a := newTestAPI(t, smallConfig(), nil)

	w, _ := a.do(t, http.MethodPost, "/api/v1/servers/register", map[string]interface{}{
		"serverId": "gs-1", "address": "10.0.0.5", "port": 7777, "maxPlayers": 2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := a.do(t, http.MethodPost, "/api/v1/matchmaking/start", map[string]interface{}{"playerName": "neo"})
	require.Equal(t, http.StatusOK, w.Code)
	queue := body["queue"].(map[string]interface{})
	assert.Equal(t, float64(1), queue["position"])

	w, body = a.do(t, http.MethodPost, "/api/v1/matchmaking/start", map[string]interface{}{"playerName": "trinity"})
	require.Equal(t, http.StatusOK, w.Code)
	queue = body["queue"].(map[string]interface{})
	matchID, _ := queue["matchId"].(string)
	require.NotEmpty(t, matchID)

	w, body = a.do(t, http.MethodGet, "/api/v1/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["activeMatches"])
	assert.Equal(t, float64(0), body["queueLength"])

	w, body = a.do(t, http.MethodGet, "/api/v1/matches/"+matchID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "waiting", body["status"])

	w, body = a.do(t, http.MethodPost, "/api/v1/matches/"+matchID+"/start", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["started"])

	w, body = a.do(t, http.MethodPost, "/api/v1/matches/"+matchID+"/end", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ended"])

	w, body = a.do(t, http.MethodPost, "/api/v1/matches/"+matchID+"/end", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["ended"])

	w, _ = a.do(t, http.MethodGet, "/api/v1/matches/"+matchID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	servers := a.svc.ListServers()
	require.Len(t, servers, 1)
	assert.Equal(t, 0, servers[0].CurrentPlayers)
}

func TestMatchmakingValidation(t *testing.T) {
	a := newTestAPI(t, smallConfig(), nil)

	w, _ := a.do(t, http.MethodPost, "/api/v1/matchmaking/start", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.do(t, http.MethodPost, "/api/v1/matchmaking/start", map[string]interface{}{"playerName": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.do(t, http.MethodPost, "/api/v1/servers/register", map[string]interface{}{
		"serverId": "gs-1", "address": "10.0.0.5", "port": 70000, "maxPlayers": 2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.do(t, http.MethodPost, "/api/v1/matchmaking/cancel", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancel(t *testing.T) {
	a := newTestAPI(t, smallConfig(), nil)

	a.do(t, http.MethodPost, "/api/v1/matchmaking/start", map[string]interface{}{"playerName": "neo"})

	w, body := a.do(t, http.MethodPost, "/api/v1/matchmaking/cancel", map[string]interface{}{"playerName": "neo"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["removed"])

	w, body = a.do(t, http.MethodPost, "/api/v1/matchmaking/cancel", map[string]interface{}{"playerName": "neo"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["removed"])
}

func TestHeartbeatUnknownServer(t *testing.T) {
	a := newTestAPI(t, smallConfig(), nil)

	w, body := a.do(t, http.MethodPost, "/api/v1/servers/heartbeat", map[string]interface{}{"serverId": "ghost"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["known"])
}

func TestStatsEndpoints(t *testing.T) {
	a := newTestAPI(t, smallConfig(), nil)

	w, _ := a.do(t, http.MethodPost, "/api/v1/stats", map[string]interface{}{
		"playerName": "neo", "kills": 6, "deaths": 3, "score": 700, "matchId": "m-1",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = a.do(t, http.MethodPost, "/api/v1/stats", map[string]interface{}{"playerName": "neo", "kills": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := a.do(t, http.MethodGet, "/api/v1/stats/neo", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["matches"])
	assert.Equal(t, float64(2), body["kdRatio"])
}

func TestEnqueueRateLimit(t *testing.T) {
	a := newTestAPI(t, service.DefaultMatchmakingConfig(), ratelimit.NewRateLimiter(2, time.Minute))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w, _ := a.do(t, http.MethodPost, "/api/v1/matchmaking/start", map[string]interface{}{"playerName": fmt.Sprintf("p%d", i)})
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialWS(t *testing.T, server *httptest.Server) (*gorilla.Conn, string) {
	t.Helper()

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/api/v1/ws", nil)
	require.NoError(t, err)

	msg := readWS(t, conn)
	require.Equal(t, websocket.TypeConnected, msg.Type)
	var payload websocket.ConnectedPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	return conn, payload.ConnectionID
}

func readWS(t *testing.T, conn *gorilla.Conn) wsMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil 다른 타입 메시지는 건너뛴다
func readUntil(t *testing.T, conn *gorilla.Conn, msgType string) wsMessage {
	t.Helper()
	for i := 0; i < 10; i++ {
		if msg := readWS(t, conn); msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("no %s message", msgType)
	return wsMessage{}
}

func TestWebSocketMatchmaking(t *testing.T) {
	a := newTestAPI(t, smallConfig(), nil)
	server := httptest.NewServer(a.router)
	defer server.Close()

	_, err := a.svc.RegisterServer(registerRequest("gs-1", 2))
	require.NoError(t, err)

	alice, _ := dialWS(t, server)
	defer alice.Close()
	bob, _ := dialWS(t, server)
	defer bob.Close()

	require.NoError(t, alice.WriteJSON(map[string]interface{}{"type": "start_matchmaking", "payload": map[string]string{"playerName": "alice"}}))
	queued := readUntil(t, alice, websocket.TypeQueued)
	assert.Contains(t, string(queued.Payload), `"position":1`)

	require.NoError(t, bob.WriteJSON(map[string]interface{}{"type": "start_matchmaking", "payload": map[string]string{"playerName": "bob"}}))

	for _, conn := range []*gorilla.Conn{alice, bob} {
		found := readUntil(t, conn, websocket.TypeMatchFound)
		assert.Contains(t, string(found.Payload), `"gs-1"`)
	}
}

func TestWebSocketDisconnectLeavesQueue(t *testing.T) {
	a := newTestAPI(t, service.DefaultMatchmakingConfig(), nil)
	server := httptest.NewServer(a.router)
	defer server.Close()

	conn, _ := dialWS(t, server)
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "start_matchmaking", "payload": map[string]string{"playerName": "neo"}}))
	readUntil(t, conn, websocket.TypeQueued)
	require.Equal(t, 1, a.svc.Status().QueueLength)

	conn.Close()
	assert.Eventually(t, func() bool {
		return a.svc.Status().QueueLength == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketEnqueueRateLimit(t *testing.T) {
	a := newTestAPI(t, service.DefaultMatchmakingConfig(), ratelimit.NewRateLimiter(2, time.Minute))
	server := httptest.NewServer(a.router)
	defer server.Close()

	conn, _ := dialWS(t, server)
	defer conn.Close()

	start := func(c *gorilla.Conn, name string) {
		require.NoError(t, c.WriteJSON(map[string]interface{}{"type": "start_matchmaking", "payload": map[string]string{"playerName": name}}))
	}

	start(conn, "p0")
	readUntil(t, conn, websocket.TypeQueued)
	start(conn, "p1")
	readUntil(t, conn, websocket.TypeQueued)
	start(conn, "p2")
	limited := readUntil(t, conn, websocket.TypeError)
	assert.Contains(t, string(limited.Payload), "rate limit")

	// 새 연결이어도 같은 IP면 한도를 공유한다
	other, _ := dialWS(t, server)
	defer other.Close()
	start(other, "p3")
	readUntil(t, other, websocket.TypeError)

	assert.Equal(t, 2, a.svc.Status().QueueLength)
}

func TestEnqueueIgnoresConnectionIDInBody(t *testing.T) {
	a := newTestAPI(t, service.DefaultMatchmakingConfig(), nil)
	server := httptest.NewServer(a.router)
	defer server.Close()

	victim, victimID := dialWS(t, server)
	defer victim.Close()

	w, _ := a.do(t, http.MethodPost, "/api/v1/matchmaking/start", map[string]interface{}{
		"playerName":   "mallory",
		"connectionId": victimID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	queue := a.svc.QueueSnapshot()
	require.Len(t, queue, 1)
	assert.Equal(t, "mallory", queue[0].Name)
	assert.Empty(t, queue[0].ConnectionID, "only the websocket channel binds a connection")
}

func TestWebSocketLobby(t *testing.T) {
	a := newTestAPI(t, smallConfig(), nil)
	server := httptest.NewServer(a.router)
	defer server.Close()

	host, hostID := dialWS(t, server)
	guest, guestID := dialWS(t, server)
	defer guest.Close()

	require.NoError(t, host.WriteJSON(map[string]interface{}{
		"type":    "create_host",
		"payload": map[string]interface{}{"roomCode": "ROOM42", "publicIp": "203.0.113.7", "port": 27015},
	}))
	assert.Eventually(t, func() bool { return len(a.lobby.List()) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, guest.WriteJSON(map[string]interface{}{"type": "join_request", "payload": map[string]string{"roomCode": "ROOM42"}}))
	info := readUntil(t, guest, websocket.TypeHostInfo)
	assert.Contains(t, string(info.Payload), `"ip":"203.0.113.7"`)
	assert.Contains(t, string(info.Payload), `"port":27015`)

	joined := readUntil(t, host, websocket.TypePlayerJoined)
	assert.Contains(t, string(joined.Payload), guestID)

	require.NoError(t, guest.WriteJSON(map[string]interface{}{"type": "join_request", "payload": map[string]string{"roomCode": "NOPE"}}))
	readUntil(t, guest, websocket.TypeError)

	host.Close()
	assert.Eventually(t, func() bool { return len(a.lobby.List()) == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.NotEqual(t, hostID, guestID)
}

func registerRequest(id string, max int) models.RegisterServerRequest {
	return models.RegisterServerRequest{ServerID: id, Address: "10.0.0.5", Port: 7777, MaxPlayers: max}
}
