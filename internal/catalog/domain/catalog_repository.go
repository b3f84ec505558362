package domain

import "context"

// ProductFilter 商品列表过滤条件
type ProductFilter struct {
	CategoryID    string
	AvailableOnly bool
	Offset        int
	Limit         int
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// Save 新建或更新；更新时校验 Version，冲突返回 common.ErrConcurrencyConflict
	Save(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)
	// Delete 逻辑删除
	Delete(ctx context.Context, id string) error
}

// CategoryFilter 分类列表过滤条件
type CategoryFilter struct {
	// ParentID 非空时只列出其直接子分类
	ParentID   string
	ActiveOnly bool
}

// CategoryRepository 分类仓储接口
type CategoryRepository interface {
	// Save 新建或更新；更新时校验 Version，冲突返回 common.ErrConcurrencyConflict
	Save(ctx context.Context, category *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	// List 按名称排序
	List(ctx context.Context, filter CategoryFilter) ([]*Category, error)
	CountChildren(ctx context.Context, id string) (int64, error)
	// Delete 逻辑删除
	Delete(ctx context.Context, id string) error
}
