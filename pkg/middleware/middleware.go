// Package middleware 提供 Gin 通用中间件（请求标识、日志、panic 恢复、指标、限流）
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

const (
	// HeaderRequestID 请求 ID 头
	HeaderRequestID = "X-Request-ID"
	// HeaderTraceID 链路 ID 头
	HeaderTraceID = "X-Trace-ID"
)

// RequestContext 为每个请求生成 request_id，沿用或生成 trace_id，并写入 request context
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := contextx.WithRequestID(c.Request.Context(), requestID)
		ctx = contextx.WithTraceID(ctx, traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// Logging Gin 日志中间件
func Logging(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		logger.WithContext(ctx, log).InfoContext(ctx, "HTTP request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"duration", time.Since(start),
		)
	}
}

// Recovery Gin panic 恢复中间件
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				ctx := c.Request.Context()
				logger.WithContext(ctx, log).ErrorContext(ctx, "HTTP request panicked", "panic", rec)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":       http.StatusInternalServerError,
					"message":    "internal server error",
					"request_id": contextx.RequestID(ctx),
				})
			}
		}()
		c.Next()
	}
}

// HTTPObserver 记录 HTTP 指标，metrics.Metrics 实现了该接口
type HTTPObserver interface {
	ObserveHTTP(method, route, status string, elapsed time.Duration)
}

// Metrics HTTP 指标中间件，按路由模板聚合
func Metrics(obs HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obs.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
