package domain

import "context"

// CartRepository 购物车仓储接口
type CartRepository interface {
	// Save 保存购物车及全部明细，已移除的明细被逻辑删除
	Save(ctx context.Context, cart *Cart) error
	GetByCustomerID(ctx context.Context, customerID string) (*Cart, error)
}
