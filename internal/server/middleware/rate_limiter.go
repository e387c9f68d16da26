package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sivira/snsdm/internal/pkg/logger"
	"github.com/sivira/snsdm/internal/pkg/response"
)

// RateLimitFailureMode 决定 Redis 不可用时的行为。
type RateLimitFailureMode int

const (
	// RateLimitFailOpen Redis 故障时放行（默认）
	RateLimitFailOpen RateLimitFailureMode = iota
	// RateLimitFailClose Redis 故障时拒绝
	RateLimitFailClose
)

// RateLimitOptions 限流附加选项。
type RateLimitOptions struct {
	FailureMode RateLimitFailureMode
}

// RateLimiter 基于 Redis 固定窗口计数的 IP 限流器。
type RateLimiter struct {
	rdb *redis.Client
}

// NewRateLimiter 创建限流器实例
func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

// rateLimitScript 自增计数，窗口首次命中时设置过期。
var rateLimitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// rateLimitRun 可在测试中替换。返回当前计数与是否为窗口首个请求。
var rateLimitRun = func(ctx context.Context, client *redis.Client, key string, windowMillis int64) (int64, bool, error) {
	count, err := rateLimitScript.Run(ctx, client, []string{key}, windowMillis).Int64()
	if err != nil {
		return 0, false, err
	}
	return count, count == 1, nil
}

// windowTTLMillis 将窗口换算为毫秒，最小 1ms。
func windowTTLMillis(window time.Duration) int64 {
	ms := window.Milliseconds()
	if ms < 1 {
		return 1
	}
	return ms
}

// Limit 以默认选项（fail-open）创建限流中间件。
func (l *RateLimiter) Limit(scope string, max int64, window time.Duration) gin.HandlerFunc {
	return l.LimitWithOptions(scope, max, window, RateLimitOptions{})
}

// LimitWithOptions 按 scope+客户端 IP 限流。
func (l *RateLimiter) LimitWithOptions(scope string, max int64, window time.Duration, opts RateLimitOptions) gin.HandlerFunc {
	windowMillis := windowTTLMillis(window)

	return func(c *gin.Context) {
		key := "ratelimit:" + scope + ":" + c.ClientIP()

		count, _, err := rateLimitRun(c.Request.Context(), l.rdb, key, windowMillis)
		if err != nil {
			logger.L().With(
				zap.String("component", "middleware.rate_limiter"),
				zap.String("scope", scope),
				zap.Error(err),
			).Warn("rate limit backend unavailable")

			if opts.FailureMode == RateLimitFailClose {
				response.ErrorWithDetails(c, http.StatusTooManyRequests, "too many requests", "RATE_LIMITED", nil)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		if count > max {
			response.ErrorWithDetails(c, http.StatusTooManyRequests, "too many requests", "RATE_LIMITED", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
