package domain

import "context"

// CustomerFilter 客户列表过滤条件
type CustomerFilter struct {
	ActiveOnly bool
	Offset     int
	Limit      int
}

// CustomerRepository 客户仓储接口
type CustomerRepository interface {
	// Save 新建或更新；更新时校验 Version，冲突返回 common.ErrConcurrencyConflict
	Save(ctx context.Context, customer *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	List(ctx context.Context, filter CustomerFilter) ([]*Customer, int64, error)
	// Delete 逻辑删除
	Delete(ctx context.Context, id string) error
}
