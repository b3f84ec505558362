package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/pkg/ratelimit"
)

// RateLimit 按客户端 IP 限流；burst 不大于 0 时取 qps，限流器异常时放行
func RateLimit(limiter ratelimit.RateLimiter, qps, burst int) gin.HandlerFunc {
	if burst <= 0 {
		burst = qps
	}
	limit := ratelimit.Limit{Rate: qps, Period: time.Second, Burst: burst}
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())
		res, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			c.Header("Retry-After", retryAfterSeconds(res.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "too many requests",
			})
			return
		}
		c.Next()
	}
}

// retryAfterSeconds 向上取整到秒，至少为 1
func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
