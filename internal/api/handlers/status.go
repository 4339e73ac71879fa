package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rl-arena/arena-matchmaker/internal/lobby"
	"github.com/rl-arena/arena-matchmaker/internal/service"
)

type StatusHandler struct {
	matchmaking *service.MatchmakingService
	lobby       *lobby.Directory
}

func NewStatusHandler(matchmaking *service.MatchmakingService, directory *lobby.Directory) *StatusHandler {
	return &StatusHandler{matchmaking: matchmaking, lobby: directory}
}

// Status 활성 매치 수, 큐 길이, 서버 수
func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.matchmaking.Status())
}

// Rooms 호스트 룸 목록
func (h *StatusHandler) Rooms(c *gin.Context) {
	rooms := h.lobby.List()
	c.JSON(http.StatusOK, gin.H{
		"rooms": rooms,
		"total": len(rooms),
	})
}
