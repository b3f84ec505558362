package domain

import (
	"context"
	"time"

	"github.com/wyfcoding/ecommerce/internal/common"
)

// 网关事件类型
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded   = "charge.refunded"
)

// WebhookEvent 解析后的网关事件；TransactionID 对退款事件而言是原始 payment intent 的 id
type WebhookEvent struct {
	ID            string
	Type          string
	TransactionID string
	Created       time.Time
}

// Gateway 外部支付网关
type Gateway interface {
	// CreateIntent 创建支付意图，返回网关侧交易号
	CreateIntent(ctx context.Context, amount common.Money, customerRef string, metadata map[string]string) (string, error)
	// ConfirmIntent 确认支付意图，成功或处理中返回 true
	ConfirmIntent(ctx context.Context, externalID string) (bool, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
	ParseWebhook(payload []byte) (WebhookEvent, error)
}

// IdempotencyStore 网关事件去重，只记录对账事务已提交的事件
type IdempotencyStore interface {
	// Seen 事件已处理过时返回 true
	Seen(ctx context.Context, eventID string) (bool, error)
	// MarkProcessed 在对账事务提交后调用
	MarkProcessed(ctx context.Context, eventID string) error
}
