package domain

import "context"

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Save 保存订单及明细；更新时校验 Version
	Save(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID string, offset, limit int) ([]*Order, int64, error)
}
