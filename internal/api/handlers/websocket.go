package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rl-arena/arena-matchmaker/internal/api/middleware"
	"github.com/rl-arena/arena-matchmaker/internal/lobby"
	"github.com/rl-arena/arena-matchmaker/internal/models"
	"github.com/rl-arena/arena-matchmaker/internal/service"
	"github.com/rl-arena/arena-matchmaker/internal/websocket"
	"github.com/rl-arena/arena-matchmaker/pkg/ratelimit"
	"go.uber.org/zap"
)

// 클라이언트 → 서버 메시지 타입
const (
	msgStartMatchmaking  = "start_matchmaking"
	msgCancelMatchmaking = "cancel_matchmaking"
	msgCreateHost        = "create_host"
	msgJoinRequest       = "join_request"
)

type createHostPayload struct {
	RoomCode string `json:"roomCode"`
	PublicIP string `json:"publicIp"`
	Port     int    `json:"port"`
}

type joinRequestPayload struct {
	RoomCode string `json:"roomCode"`
}

type queuedPayload struct {
	PlayerID string `json:"playerId"`
	Position int    `json:"position"`
	Length   int    `json:"length"`
	MatchID  string `json:"matchId,omitempty"`
}

type cancelledPayload struct {
	PlayerID string `json:"playerId"`
}

type hostInfoPayload struct {
	RoomCode string `json:"roomCode"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
}

type playerJoinedPayload struct {
	RoomCode     string `json:"roomCode"`
	ConnectionID string `json:"connectionId"`
}

// WebSocketHandler 실시간 채널: 매칭 요청, 호스트 룸 등록/참가
type WebSocketHandler struct {
	hub         *websocket.Hub
	upgrader    gorilla.Upgrader
	matchmaking *service.MatchmakingService
	lobby       *lobby.Directory
	limiter     ratelimit.Limiter // nil이면 제한 없음
	logger      *zap.Logger
}

// NewWebSocketHandler hub에 메시지 핸들러와 연결 종료 콜백을 연결한다
func NewWebSocketHandler(
	hub *websocket.Hub,
	matchmaking *service.MatchmakingService,
	directory *lobby.Directory,
	limiter ratelimit.Limiter,
	allowedOrigins []string,
	logger *zap.Logger,
) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &WebSocketHandler{
		hub:         hub,
		upgrader:    websocket.NewUpgrader(allowedOrigins),
		matchmaking: matchmaking,
		lobby:       directory,
		limiter:     limiter,
		logger:      logger,
	}
	hub.SetMessageHandler(h)
	hub.OnDisconnect(h.handleDisconnect)
	return h
}

// HandleWebSocket WebSocket 연결 엔드포인트
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	websocket.ServeWs(h.hub, h.upgrader, c.Writer, c.Request, c.ClientIP())
}

func (h *WebSocketHandler) HandleMessage(connectionID string, msg websocket.InboundMessage) {
	switch msg.Type {
	case msgStartMatchmaking:
		var req models.EnqueueRequest
		if !h.decode(connectionID, msg, &req) {
			return
		}
		req.ConnectionID = connectionID

		if !h.allowEnqueue(connectionID) {
			h.replyError(connectionID, "rate limit exceeded")
			return
		}

		player, status, err := h.matchmaking.Enqueue(req)
		if err != nil {
			h.replyError(connectionID, "playerName is required")
			return
		}
		h.hub.Send(connectionID, websocket.TypeQueued, queuedPayload{
			PlayerID: player.ID,
			Position: status.Position,
			Length:   status.Length,
			MatchID:  status.MatchID,
		})

	case msgCancelMatchmaking:
		var req models.CancelRequest
		if !h.decode(connectionID, msg, &req) {
			return
		}
		key := req.PlayerID
		if key == "" {
			key = req.PlayerName
		}

		player, ok := h.matchmaking.Cancel(key)
		if !ok {
			h.replyError(connectionID, "not in queue")
			return
		}
		h.hub.Send(connectionID, websocket.TypeCancelled, cancelledPayload{PlayerID: player.ID})

	case msgCreateHost:
		var req createHostPayload
		if !h.decode(connectionID, msg, &req) {
			return
		}

		host, err := h.lobby.CreateHost(req.RoomCode, req.PublicIP, req.Port, connectionID)
		if err != nil {
			h.replyError(connectionID, err.Error())
			return
		}
		h.logger.Info("Host room created",
			zap.String("roomCode", host.RoomCode),
			zap.String("ip", host.IP),
			zap.Int("port", host.Port))

	case msgJoinRequest:
		var req joinRequestPayload
		if !h.decode(connectionID, msg, &req) {
			return
		}

		host, err := h.lobby.Join(req.RoomCode)
		if err != nil {
			if errors.Is(err, lobby.ErrRoomNotFound) {
				h.replyError(connectionID, "room not found")
				return
			}
			h.replyError(connectionID, err.Error())
			return
		}

		h.hub.Send(connectionID, websocket.TypeHostInfo, hostInfoPayload{
			RoomCode: host.RoomCode,
			IP:       host.IP,
			Port:     host.Port,
		})
		h.hub.Send(host.ConnectionID, websocket.TypePlayerJoined, playerJoinedPayload{
			RoomCode:     host.RoomCode,
			ConnectionID: connectionID,
		})

	default:
		h.replyError(connectionID, "unknown message type: "+msg.Type)
	}
}

// handleDisconnect 끊긴 연결의 대기열 항목과 호스트 룸 정리
func (h *WebSocketHandler) handleDisconnect(connectionID string) {
	removed := h.matchmaking.RemoveConnection(connectionID)
	rooms := h.lobby.RemoveByConnection(connectionID)

	if removed > 0 || len(rooms) > 0 {
		h.logger.Info("Cleaned up after disconnect",
			zap.String("connectionId", connectionID),
			zap.Int("queueEntries", removed),
			zap.Strings("rooms", rooms))
	}
}

// allowEnqueue POST /matchmaking/start와 같은 IP 키로 한도 확인. 저장소 오류 시 통과
func (h *WebSocketHandler) allowEnqueue(connectionID string) bool {
	if h.limiter == nil {
		return true
	}

	key := "conn:" + connectionID
	if ip, ok := h.hub.RemoteIP(connectionID); ok && ip != "" {
		key = middleware.IPKey(ip)
	}

	allowed, err := h.limiter.Allow(context.Background(), key)
	if err != nil {
		h.logger.Warn("Rate limiter unavailable, allowing enqueue",
			zap.String("key", key),
			zap.Error(err))
		return true
	}
	return allowed
}

func (h *WebSocketHandler) decode(connectionID string, msg websocket.InboundMessage, v interface{}) bool {
	if len(msg.Payload) == 0 {
		h.replyError(connectionID, "missing payload")
		return false
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		h.replyError(connectionID, "invalid payload for "+msg.Type)
		return false
	}
	return true
}

func (h *WebSocketHandler) replyError(connectionID, message string) {
	h.hub.Send(connectionID, websocket.TypeError, websocket.ErrorPayload{Message: message})
}
