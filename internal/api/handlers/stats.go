package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rl-arena/arena-matchmaker/internal/models"
	"github.com/rl-arena/arena-matchmaker/internal/service"
)

type StatsHandler struct {
	stats *service.StatsService
}

func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Submit 경기 결과 기록
func (h *StatsHandler) Submit(c *gin.Context) {
	var req models.SubmitStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.stats.Submit(c.Request.Context(), req)
	if err != nil {
		writeStatsError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// Summary 플레이어 누적 전적
func (h *StatsHandler) Summary(c *gin.Context) {
	summary, err := h.stats.Summary(c.Request.Context(), c.Param("playerName"))
	if err != nil {
		writeStatsError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func writeStatsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStatsUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stats storage unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
