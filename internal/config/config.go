package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database (비어 있으면 메모리 전적 원장)
	DatabaseURL string

	// Redis (비어 있으면 이벤트 발행 없음 + 메모리 rate limit)
	RedisURL string

	// CORS
	CORSAllowedOrigins []string

	// Matchmaking
	MatchSize       int
	MatchStartDelay time.Duration
	MatchMaxAge     time.Duration
	QueueMaxAge     time.Duration
	CleanupInterval time.Duration

	// Game servers
	HeartbeatInterval    time.Duration
	HeartbeatDeadline    time.Duration
	ServerEvictionPolicy string
	GameServersFile      string

	// 클라이언트별 분당 enqueue 허용 횟수
	EnqueueRateLimit int
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		CORSAllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		MatchSize:            parseInt(getEnv("MATCH_SIZE", ""), 10),
		MatchStartDelay:      parseDuration(getEnv("MATCH_START_DELAY", ""), 120*time.Second),
		MatchMaxAge:          parseDuration(getEnv("MATCH_MAX_AGE", ""), 30*time.Minute),
		QueueMaxAge:          parseDuration(getEnv("QUEUE_MAX_AGE", ""), 10*time.Minute),
		CleanupInterval:      parseDuration(getEnv("CLEANUP_INTERVAL", ""), 5*time.Minute),
		HeartbeatInterval:    parseDuration(getEnv("HEARTBEAT_INTERVAL", ""), 10*time.Second),
		HeartbeatDeadline:    parseDuration(getEnv("HEARTBEAT_DEADLINE", ""), 30*time.Second),
		ServerEvictionPolicy: strings.ToLower(getEnv("SERVER_EVICTION_POLICY", "remove")),
		GameServersFile:      getEnv("GAME_SERVERS_FILE", ""),
		EnqueueRateLimit:     parseInt(getEnv("ENQUEUE_RATE_LIMIT", ""), 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate 설정값 검증
func (c *Config) Validate() error {
	var errs []error

	if c.MatchSize < 2 {
		errs = append(errs, fmt.Errorf("MATCH_SIZE must be at least 2, got %d", c.MatchSize))
	} else if c.MatchSize%2 != 0 {
		errs = append(errs, fmt.Errorf("MATCH_SIZE must be even, got %d", c.MatchSize))
	}

	durations := map[string]time.Duration{
		"MATCH_START_DELAY":  c.MatchStartDelay,
		"MATCH_MAX_AGE":      c.MatchMaxAge,
		"QUEUE_MAX_AGE":      c.QueueMaxAge,
		"CLEANUP_INTERVAL":   c.CleanupInterval,
		"HEARTBEAT_INTERVAL": c.HeartbeatInterval,
		"HEARTBEAT_DEADLINE": c.HeartbeatDeadline,
	}
	for name, d := range durations {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}

	switch c.ServerEvictionPolicy {
	case "remove", "offline":
	default:
		errs = append(errs, fmt.Errorf("SERVER_EVICTION_POLICY must be remove or offline, got %q", c.ServerEvictionPolicy))
	}

	if c.EnqueueRateLimit < 0 {
		errs = append(errs, fmt.Errorf("ENQUEUE_RATE_LIMIT must not be negative, got %d", c.EnqueueRateLimit))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration "90s" 같은 Go duration 또는 초 단위 정수
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func parseInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
