package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/ecommerce/internal/common"
)

// StockStatus 商品库存状态
type StockStatus string

const (
	StockStatusInStock      StockStatus = "IN_STOCK"
	StockStatusLowStock     StockStatus = "LOW_STOCK"
	StockStatusOutOfStock   StockStatus = "OUT_OF_STOCK"
	StockStatusBackorder    StockStatus = "BACKORDER"
	StockStatusPreorder     StockStatus = "PREORDER"
	StockStatusDiscontinued StockStatus = "DISCONTINUED"
	StockStatusUnavailable  StockStatus = "UNAVAILABLE"
)

// DefaultLowStockThreshold 未指定阈值时使用
const DefaultLowStockThreshold = 10

// IsManual 人工设置的状态，库存变化不会覆盖
func (s StockStatus) IsManual() bool {
	switch s {
	case StockStatusBackorder, StockStatusPreorder, StockStatusDiscontinued, StockStatusUnavailable:
		return true
	}
	return false
}

// ParseStockStatus 解析人工可设置的状态
func ParseStockStatus(s string) (StockStatus, error) {
	st := StockStatus(s)
	if !st.IsManual() {
		return "", fmt.Errorf("%w: %q is not a manually assignable status", common.ErrValidationFailed, s)
	}
	return st, nil
}

// Product 商品聚合根
type Product struct {
	ID                string
	Name              string
	Description       string
	CategoryID        string
	SKU               string
	ImageURL          string
	Price             common.Money
	Stock             int
	Status            StockStatus
	LowStockThreshold int
	// Version 乐观锁版本，由仓储维护
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct 创建商品，初始状态由库存推导
func NewProduct(name, description, categoryID, sku string, price common.Money, stock, lowStockThreshold int) (*Product, error) {
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", common.ErrValidationFailed)
	}
	if lowStockThreshold < 0 {
		return nil, fmt.Errorf("%w: low stock threshold must not be negative", common.ErrValidationFailed)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be greater than zero", common.ErrValidationFailed)
	}
	now := time.Now()
	p := &Product{
		ID:                uuid.NewString(),
		Name:              name,
		Description:       description,
		CategoryID:        categoryID,
		SKU:               sku,
		Price:             price,
		Stock:             stock,
		LowStockThreshold: lowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	p.refreshStatus()
	return p, nil
}

// UpdateDetails 更新描述信息
func (p *Product) UpdateDetails(name, description, categoryID, imageURL string) {
	p.Name = name
	p.Description = description
	p.CategoryID = categoryID
	p.ImageURL = imageURL
	p.touch()
}

// UpdatePrice 调价，币种不可变
func (p *Product) UpdatePrice(price common.Money) error {
	if price.Currency != p.Price.Currency {
		return fmt.Errorf("%w: product is priced in %s", common.ErrCurrencyMismatch, p.Price.Currency)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than zero", common.ErrValidationFailed)
	}
	p.Price = price
	p.touch()
	return nil
}

// SetLowStockThreshold 调整低库存阈值并重新推导状态
func (p *Product) SetLowStockThreshold(threshold int) error {
	if threshold < 0 {
		return fmt.Errorf("%w: low stock threshold must not be negative", common.ErrValidationFailed)
	}
	p.LowStockThreshold = threshold
	p.refreshStatus()
	p.touch()
	return nil
}

// ReduceStock 扣减库存，不足时返回 ErrInsufficientStock 且不做任何修改
func (p *Product) ReduceStock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than zero", common.ErrValidationFailed)
	}
	if quantity > p.Stock {
		return fmt.Errorf("%w: product %s has %d, requested %d", common.ErrInsufficientStock, p.ID, p.Stock, quantity)
	}
	p.Stock -= quantity
	p.refreshStatus()
	p.touch()
	return nil
}

// AddStock 补货
func (p *Product) AddStock(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", common.ErrValidationFailed)
	}
	p.Stock += quantity
	p.refreshStatus()
	p.touch()
	return nil
}

// UpdateStock 直接设置库存
func (p *Product) UpdateStock(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: stock must not be negative", common.ErrValidationFailed)
	}
	p.Stock = quantity
	p.refreshStatus()
	p.touch()
	return nil
}

// MarkAsBackorder 人工标记为缺货可预订
func (p *Product) MarkAsBackorder() { p.mark(StockStatusBackorder) }

// MarkAsPreorder 人工标记为预售
func (p *Product) MarkAsPreorder() { p.mark(StockStatusPreorder) }

// MarkAsDiscontinued 人工标记为停产
func (p *Product) MarkAsDiscontinued() { p.mark(StockStatusDiscontinued) }

// MarkAsUnavailable 人工标记为不可售
func (p *Product) MarkAsUnavailable() { p.mark(StockStatusUnavailable) }

// MarkAs 按状态值分派到对应的人工标记
func (p *Product) MarkAs(status StockStatus) error {
	switch status {
	case StockStatusBackorder:
		p.MarkAsBackorder()
	case StockStatusPreorder:
		p.MarkAsPreorder()
	case StockStatusDiscontinued:
		p.MarkAsDiscontinued()
	case StockStatusUnavailable:
		p.MarkAsUnavailable()
	default:
		return fmt.Errorf("%w: %s is derived from stock and cannot be set manually", common.ErrValidationFailed, status)
	}
	return nil
}

// ResumeStockTracking 撤销人工状态，重新按库存推导
func (p *Product) ResumeStockTracking() {
	if p.Status.IsManual() {
		p.Status = StockStatusInStock
	}
	p.refreshStatus()
	p.touch()
}

// IsAvailableForPurchase 是否可下单
func (p *Product) IsAvailableForPurchase() bool {
	switch p.Status {
	case StockStatusInStock, StockStatusLowStock, StockStatusPreorder, StockStatusBackorder:
		return true
	}
	return false
}

// NeedsRestock 库存落在低库存或缺货区间
func (p *Product) NeedsRestock() bool {
	return p.Status == StockStatusLowStock || p.Status == StockStatusOutOfStock
}

func (p *Product) mark(status StockStatus) {
	p.Status = status
	p.touch()
}

// refreshStatus 人工状态保持不变，其余按库存与阈值推导
func (p *Product) refreshStatus() {
	if p.Status.IsManual() {
		return
	}
	switch {
	case p.Stock == 0:
		p.Status = StockStatusOutOfStock
	case p.Stock <= p.LowStockThreshold:
		p.Status = StockStatusLowStock
	default:
		p.Status = StockStatusInStock
	}
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now()
}
