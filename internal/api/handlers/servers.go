package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rl-arena/arena-matchmaker/internal/models"
	"github.com/rl-arena/arena-matchmaker/internal/service"
)

type ServerHandler struct {
	matchmaking *service.MatchmakingService
}

func NewServerHandler(matchmaking *service.MatchmakingService) *ServerHandler {
	return &ServerHandler{matchmaking: matchmaking}
}

// Register 게임 서버 등록 (같은 ID면 갱신)
func (h *ServerHandler) Register(c *gin.Context) {
	var req models.RegisterServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	server, err := h.matchmaking.RegisterServer(req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"registered": true,
		"server":     server,
	})
}

// Heartbeat 모르는 서버여도 200. known으로 재등록 필요 여부를 알린다
func (h *ServerHandler) Heartbeat(c *gin.Context) {
	var req models.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	known := h.matchmaking.Heartbeat(req)
	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"known": known,
	})
}

func (h *ServerHandler) List(c *gin.Context) {
	servers := h.matchmaking.ListServers()
	c.JSON(http.StatusOK, gin.H{
		"servers": servers,
		"total":   len(servers),
	})
}
