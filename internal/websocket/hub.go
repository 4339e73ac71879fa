package websocket

import (
	"sync"

	"github.com/rl-arena/arena-matchmaker/internal/models"
	"go.uber.org/zap"
)

// 서버 → 클라이언트 메시지 타입
const (
	TypeConnected    = "connected"
	TypeQueued       = "queued"
	TypeCancelled    = "cancelled"
	TypeMatchFound   = "match_found"
	TypeMatchStarted = "match_started"
	TypeHostInfo     = "host_info"
	TypePlayerJoined = "player_joined"
	TypeError        = "error"
)

// Hub 연결 ID별 WebSocket 연결 관리
type Hub struct {
	// 연결별 클라이언트 (connectionID -> *Client)
	clients map[string]*Client
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	stopChan   chan struct{}
	stopOnce   sync.Once

	handler      MessageHandler
	onDisconnect func(connectionID string)

	logger *zap.Logger
}

// Message WebSocket 메시지
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// MessageHandler 클라이언트가 보낸 메시지 처리
type MessageHandler interface {
	HandleMessage(connectionID string, msg InboundMessage)
}

type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopChan:   make(chan struct{}),
		logger:     logger,
	}
}

// SetMessageHandler Run 전에 설정
func (h *Hub) SetMessageHandler(handler MessageHandler) {
	h.handler = handler
}

// OnDisconnect 연결 종료 시 호출될 콜백. Run 전에 설정
func (h *Hub) OnDisconnect(fn func(connectionID string)) {
	h.onDisconnect = fn
}

// Run Hub 실행. Stop까지 블록
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.stopChan:
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.connectionID] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("WebSocket client registered",
		zap.String("connectionId", client.connectionID),
		zap.Int("totalClients", total))

	h.Send(client.connectionID, TypeConnected, ConnectedPayload{ConnectionID: client.connectionID})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, exists := h.clients[client.connectionID]
	if exists {
		delete(h.clients, client.connectionID)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !exists {
		return
	}

	h.logger.Info("WebSocket client unregistered",
		zap.String("connectionId", client.connectionID),
		zap.Int("totalClients", total))

	if h.onDisconnect != nil {
		h.onDisconnect(client.connectionID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
}

// Send 특정 연결로 전송. 버퍼가 가득 찼거나 연결이 없으면 버리고 false
func (h *Hub) Send(connectionID, msgType string, payload interface{}) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[connectionID]
	if !exists {
		return false
	}

	select {
	case client.send <- &Message{Type: msgType, Payload: payload}:
		return true
	default:
		h.logger.Warn("Client send channel full, dropping message",
			zap.String("connectionId", connectionID),
			zap.String("type", msgType))
		return false
	}
}

// RemoteIP 연결의 클라이언트 IP. 연결이 없으면 false
func (h *Hub) RemoteIP(connectionID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[connectionID]
	if !exists {
		return "", false
	}
	return client.remoteIP, true
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) NotifyMatchFound(connectionID string, payload models.MatchFoundPayload) {
	h.Send(connectionID, TypeMatchFound, payload)
}

func (h *Hub) NotifyMatchStarted(connectionID string, payload models.MatchStartedPayload) {
	h.Send(connectionID, TypeMatchStarted, payload)
}

func (h *Hub) dispatch(connectionID string, msg InboundMessage) {
	if h.handler == nil {
		return
	}
	h.handler.HandleMessage(connectionID, msg)
}
