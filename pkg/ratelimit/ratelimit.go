package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter 키 단위 요청 제한
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 프로세스 내 키별 토큰 버킷. window 동안 limit번 허용
type RateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	limit       int
	every       rate.Limit
	idleTimeout time.Duration
	lastCleanup time.Time
	clock       func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		buckets:     make(map[string]*bucket),
		limit:       limit,
		every:       rate.Every(window / time.Duration(limit)),
		idleTimeout: 10 * time.Minute,
		lastCleanup: time.Now(),
		clock:       time.Now,
	}
}

// SetClock 시간 소스 교체 (테스트용)
func (rl *RateLimiter) SetClock(clock func() time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.clock = clock
	rl.lastCleanup = clock()
}

func (rl *RateLimiter) Limit() int {
	return rl.limit
}

func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock()
	rl.cleanupLocked(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, 1), nil
}

// cleanupLocked 오래 쓰지 않은 버킷 제거. 별도 고루틴 없이 요청 경로에서 가끔 수행
func (rl *RateLimiter) cleanupLocked(now time.Time) {
	if now.Sub(rl.lastCleanup) < rl.idleTimeout {
		return
	}
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.idleTimeout {
			delete(rl.buckets, key)
		}
	}
	rl.lastCleanup = now
}

func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, key)
}

// Len 활성 버킷 수
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
