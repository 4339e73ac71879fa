package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rl-arena/arena-matchmaker/internal/api"
	"github.com/rl-arena/arena-matchmaker/internal/config"
	"github.com/rl-arena/arena-matchmaker/internal/lobby"
	"github.com/rl-arena/arena-matchmaker/internal/matchmaking"
	"github.com/rl-arena/arena-matchmaker/internal/repository"
	"github.com/rl-arena/arena-matchmaker/internal/service"
	"github.com/rl-arena/arena-matchmaker/internal/websocket"
	"github.com/rl-arena/arena-matchmaker/pkg/database"
	"github.com/rl-arena/arena-matchmaker/pkg/distributed"
	"github.com/rl-arena/arena-matchmaker/pkg/logger"
	"github.com/rl-arena/arena-matchmaker/pkg/ratelimit"
)

func main() {
	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 로거 초기화
	logger.Init(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	logger.Info("Starting arena matchmaker",
		"port", cfg.Port,
		"env", cfg.Env,
		"matchSize", cfg.MatchSize,
	)

	// 전적 저장소: DATABASE_URL이 없으면 메모리
	var ledger service.StatsLedger = repository.NewMemoryStatsRepository()
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", "error", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.Migrate(ctx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to migrate database", "error", err)
		}
		ledger = repository.NewStatsRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, stats are kept in memory")
	}

	// Redis: 이벤트 발행 + 분산 rate limit (선택)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL", "error", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis not reachable, events will be dropped until it is", "error", err)
		}
		cancel()
	}

	hub := websocket.NewHub(logger.Named("ws"))

	matchmakingService := service.NewMatchmakingService(service.MatchmakingConfig{
		MatchSize:         cfg.MatchSize,
		StartDelay:        cfg.MatchStartDelay,
		MatchMaxAge:       cfg.MatchMaxAge,
		QueueMaxAge:       cfg.QueueMaxAge,
		HeartbeatDeadline: cfg.HeartbeatDeadline,
		EvictionPolicy:    matchmaking.EvictionPolicy(cfg.ServerEvictionPolicy),
	}, hub, logger.Named("matchmaking"))

	var enqueueLimiter ratelimit.Limiter
	if cfg.EnqueueRateLimit > 0 {
		enqueueLimiter = ratelimit.NewRateLimiter(cfg.EnqueueRateLimit, time.Minute)
	}

	if redisClient != nil {
		matchmakingService.SetEventPublisher(distributed.NewRedisEventBus(redisClient, "", logger.Named("events")))
		if cfg.EnqueueRateLimit > 0 {
			enqueueLimiter = ratelimit.NewRedisRateLimiter(redisClient, "ratelimit:enqueue:", cfg.EnqueueRateLimit, time.Minute)
		}
	}

	// 정적 게임 서버 목록 (이후 하트비트가 없으면 다른 서버처럼 정리된다)
	staticServers, err := config.LoadGameServers(cfg.GameServersFile)
	if err != nil {
		logger.Fatal("Failed to load game servers", "error", err)
	}
	for _, s := range staticServers {
		if _, err := matchmakingService.RegisterServer(s); err != nil {
			logger.Warn("Skipping game server", "serverId", s.ServerID, "error", err)
		}
	}

	go hub.Run()

	heartbeatMonitor := service.NewHeartbeatMonitor(matchmakingService, cfg.HeartbeatInterval, logger.Named("heartbeat"))
	heartbeatMonitor.Start()

	cleanupScheduler := service.NewCleanupScheduler(matchmakingService, cfg.CleanupInterval, logger.Named("cleanup"))
	cleanupScheduler.Start()

	router := api.SetupRouter(api.Dependencies{
		Matchmaking:    matchmakingService,
		Stats:          service.NewStatsService(ledger, logger.Named("stats")),
		Lobby:          lobby.NewDirectory(),
		Hub:            hub,
		EnqueueLimiter: enqueueLimiter,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Production:     cfg.IsProduction(),
		Logger:         logger.Named("api"),
	})

	// 서버 설정
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown 대기
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	heartbeatMonitor.Stop()
	cleanupScheduler.Stop()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
