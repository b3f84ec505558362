// Package contextx 提供在 context 中传递事务句柄与请求标识的助手
package contextx

import (
	"context"

	"gorm.io/gorm"
)

type ctxKey int

const (
	txKey ctxKey = iota
	requestIDKey
	traceIDKey
)

// WithTx 将 GORM 事务绑定到 context
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetTx 从 context 中取出事务，不存在时返回 nil
func GetTx(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return nil
	}
	tx, _ := ctx.Value(txKey).(*gorm.DB)
	return tx
}

// WithRequestID 绑定请求 ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID 读取请求 ID
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTraceID 绑定链路 ID
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// TraceID 读取链路 ID
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}
