package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rl-arena/arena-matchmaker/internal/service"
)

type MatchHandler struct {
	matchmaking *service.MatchmakingService
}

func NewMatchHandler(matchmaking *service.MatchmakingService) *MatchHandler {
	return &MatchHandler{matchmaking: matchmaking}
}

// List 진행 중인 매치 목록
func (h *MatchHandler) List(c *gin.Context) {
	matches := h.matchmaking.ListMatches()
	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"total":   len(matches),
	})
}

func (h *MatchHandler) Get(c *gin.Context) {
	match, err := h.matchmaking.GetMatch(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, match)
}

// Start waiting 매치를 즉시 시작. 이미 시작/종료됐으면 started=false
func (h *MatchHandler) Start(c *gin.Context) {
	started := h.matchmaking.StartMatch(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"started": started})
}

// End 게임 서버의 매치 종료 보고. 중복 보고도 200
func (h *MatchHandler) End(c *gin.Context) {
	ended := h.matchmaking.EndMatch(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"ended": ended})
}
