package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rl-arena/arena-matchmaker/pkg/ratelimit"
	"go.uber.org/zap"
)

// IPKeyFunc 클라이언트 IP 기준
func IPKeyFunc(c *gin.Context) string {
	return IPKey(c.ClientIP())
}

// IPKey HTTP와 WebSocket 요청이 같은 한도를 나눠 쓰도록 하는 키
func IPKey(ip string) string {
	return fmt.Sprintf("ip:%s", ip)
}

// RateLimit 키별 요청 제한. 저장소 오류 시 요청을 통과시킨다 (fail-open)
func RateLimit(limiter ratelimit.Limiter, keyFunc func(*gin.Context) string, log *zap.Logger) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = IPKeyFunc
	}
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("Rate limiter unavailable, allowing request",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))

		if !allowed {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("Rate limit exceeded. Limit: %d requests per minute", limiter.Limit()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
