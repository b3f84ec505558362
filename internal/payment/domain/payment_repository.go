package domain

import "context"

// PaymentRepository 支付仓储接口
type PaymentRepository interface {
	// Save 保存支付；更新时校验 Version
	Save(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
}

// ParkedEventRepository 未匹配网关事件仓储
type ParkedEventRepository interface {
	// Park 按 EventID 去重写入；已存在时累加尝试次数
	Park(ctx context.Context, event *ParkedEvent) error
	List(ctx context.Context, limit int) ([]*ParkedEvent, error)
	// Resolve 事件已被处理，逻辑删除
	Resolve(ctx context.Context, id string) error
	MarkAttempt(ctx context.Context, id, reason string) error
}
