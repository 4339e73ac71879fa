package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript 토큰 조회, 경과 시간만큼 리필, 1개 소비를 원자적으로 처리
var tokenBucketScript = redis.NewScript(`
	local tokens_key = KEYS[1] .. ":tokens"
	local timestamp_key = KEYS[1] .. ":ts"
	local limit = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local now_ms = tonumber(ARGV[3])

	local tokens = tonumber(redis.call('GET', tokens_key))
	local last_update = tonumber(redis.call('GET', timestamp_key))
	if tokens == nil or last_update == nil then
		tokens = limit
		last_update = now_ms
	end

	local elapsed = math.max(0, now_ms - last_update)
	tokens = math.min(limit, tokens + (elapsed * limit / window_ms))

	local allowed = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('SET', tokens_key, tostring(tokens), 'PX', window_ms * 2)
	redis.call('SET', timestamp_key, now_ms, 'PX', window_ms * 2)

	return {allowed, math.floor(tokens)}
`)

// RedisRateLimiter 여러 인스턴스가 공유하는 Redis 토큰 버킷
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
	clock     func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, keyPrefix string, limit int, window time.Duration) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
		clock:     time.Now,
	}
}

func (r *RedisRateLimiter) Limit() int {
	return r.limit
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, _, err := r.AllowWithInfo(ctx, key)
	return allowed, err
}

// AllowWithInfo 허용 여부와 남은 토큰 수
func (r *RedisRateLimiter) AllowWithInfo(ctx context.Context, key string) (bool, *RateLimitInfo, error) {
	result, err := tokenBucketScript.Run(ctx, r.client,
		[]string{r.keyPrefix + key},
		r.limit,
		r.window.Milliseconds(),
		r.clock().UnixMilli(),
	).Slice()
	if err != nil {
		return false, nil, fmt.Errorf("redis script execution failed: %w", err)
	}
	if len(result) < 2 {
		return false, nil, fmt.Errorf("invalid script result")
	}

	allowed, _ := result[0].(int64)
	remaining, _ := result[1].(int64)

	return allowed == 1, &RateLimitInfo{Limit: r.limit, Remaining: int(remaining)}, nil
}

// Reset 특정 키의 제한 초기화
func (r *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	redisKey := r.keyPrefix + key
	if err := r.client.Del(ctx, redisKey+":tokens", redisKey+":ts").Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}
