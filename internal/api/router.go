package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rl-arena/arena-matchmaker/internal/api/handlers"
	"github.com/rl-arena/arena-matchmaker/internal/api/middleware"
	"github.com/rl-arena/arena-matchmaker/internal/lobby"
	"github.com/rl-arena/arena-matchmaker/internal/service"
	"github.com/rl-arena/arena-matchmaker/internal/websocket"
	"github.com/rl-arena/arena-matchmaker/pkg/ratelimit"
	"go.uber.org/zap"
)

// Dependencies 라우터가 사용하는 서비스 묶음
type Dependencies struct {
	Matchmaking    *service.MatchmakingService
	Stats          *service.StatsService
	Lobby          *lobby.Directory
	Hub            *websocket.Hub
	EnqueueLimiter ratelimit.Limiter // nil이면 제한 없음
	AllowedOrigins []string
	Production     bool
	Logger         *zap.Logger
}

// SetupRouter API 라우터 설정
func SetupRouter(deps Dependencies) *gin.Engine {
	if deps.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(deps.Logger.Named("http")))
	router.Use(middleware.CORS(deps.AllowedOrigins))

	matchmakingHandler := handlers.NewMatchmakingHandler(deps.Matchmaking)
	serverHandler := handlers.NewServerHandler(deps.Matchmaking)
	matchHandler := handlers.NewMatchHandler(deps.Matchmaking)
	statsHandler := handlers.NewStatsHandler(deps.Stats)
	statusHandler := handlers.NewStatusHandler(deps.Matchmaking, deps.Lobby)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.Matchmaking, deps.Lobby, deps.EnqueueLimiter, deps.AllowedOrigins, deps.Logger.Named("ws"))

	var enqueueLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if deps.EnqueueLimiter != nil {
		enqueueLimit = middleware.RateLimit(deps.EnqueueLimiter, middleware.IPKeyFunc, deps.Logger.Named("ratelimit"))
	}

	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/ws", wsHandler.HandleWebSocket)
		v1.GET("/status", statusHandler.Status)
		v1.GET("/lobby/rooms", statusHandler.Rooms)

		mm := v1.Group("/matchmaking")
		{
			mm.POST("/start", enqueueLimit, matchmakingHandler.Start)
			mm.POST("/cancel", matchmakingHandler.Cancel)
			mm.GET("/queue", matchmakingHandler.Queue)
		}

		servers := v1.Group("/servers")
		{
			servers.GET("", serverHandler.List)
			servers.POST("/register", serverHandler.Register)
			servers.POST("/heartbeat", serverHandler.Heartbeat)
		}

		matches := v1.Group("/matches")
		{
			matches.GET("", matchHandler.List)
			matches.GET("/:id", matchHandler.Get)
			matches.POST("/:id/start", matchHandler.Start)
			matches.POST("/:id/end", matchHandler.End)
		}

		stats := v1.Group("/stats")
		{
			stats.POST("", statsHandler.Submit)
			stats.GET("/:playerName", statsHandler.Summary)
		}
	}

	return router
}
