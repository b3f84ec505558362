package common

import (
	"context"
	"log/slog"
)

// EventPublisher 通知出口，发布失败不影响业务结果
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// PaymentStatus 支付状态，订单上的 paymentStatus 与之镜像
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Notify 发布通知事件，失败只记录日志，不影响调用方结果
func Notify(ctx context.Context, pub EventPublisher, log *slog.Logger, topic, key string, event any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, key, event); err != nil {
		log.WarnContext(ctx, "failed to publish event", "topic", topic, "key", key, "error", err)
	}
}
