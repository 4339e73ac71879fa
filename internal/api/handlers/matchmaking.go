package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rl-arena/arena-matchmaker/internal/models"
	"github.com/rl-arena/arena-matchmaker/internal/service"
)

type MatchmakingHandler struct {
	matchmaking *service.MatchmakingService
}

func NewMatchmakingHandler(matchmaking *service.MatchmakingService) *MatchmakingHandler {
	return &MatchmakingHandler{matchmaking: matchmaking}
}

// Start 매칭 대기열 진입
func (h *MatchmakingHandler) Start(c *gin.Context) {
	var req models.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, status, err := h.matchmaking.Enqueue(req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "playerName is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playerId": player.ID,
		"queue":    status,
	})
}

// Cancel 대기 취소. 이미 매칭됐거나 없는 플레이어면 404
func (h *MatchmakingHandler) Cancel(c *gin.Context) {
	var req models.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := req.PlayerID
	if key == "" {
		key = req.PlayerName
	}
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerId or playerName is required"})
		return
	}

	player, ok := h.matchmaking.Cancel(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"removed": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"removed":  true,
		"playerId": player.ID,
	})
}

func (h *MatchmakingHandler) Queue(c *gin.Context) {
	players := h.matchmaking.QueueSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"players": players,
		"total":   len(players),
	})
}
