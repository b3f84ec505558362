package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/ecommerce/internal/common"
)

// CartItem 购物车明细，名称与单价为加入时的快照
type CartItem struct {
	ID          string
	ProductID   string
	ProductName string
	UnitPrice   common.Money
	Quantity    int
	TotalPrice  common.Money
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func newCartItem(productID, productName string, unitPrice common.Money, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", common.ErrValidationFailed)
	}
	if productName == "" {
		return nil, fmt.Errorf("%w: product name is required", common.ErrValidationFailed)
	}
	now := time.Now()
	return &CartItem{
		ID:          uuid.NewString(),
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		TotalPrice:  unitPrice.Multiply(quantity),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (i *CartItem) setQuantity(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than zero", common.ErrValidationFailed)
	}
	i.Quantity = quantity
	i.TotalPrice = i.UnitPrice.Multiply(quantity)
	i.UpdatedAt = time.Now()
	return nil
}

// Cart 购物车聚合根，每个客户至多一个
type Cart struct {
	ID           string
	CustomerID   string
	Items        []*CartItem
	LastModified time.Time
	CreatedAt    time.Time
	// Version 乐观锁版本，由仓储维护
	Version int64
}

// NewCart 为客户创建空购物车
func NewCart(customerID string) *Cart {
	now := time.Now()
	return &Cart{
		ID:           uuid.NewString(),
		CustomerID:   customerID,
		LastModified: now,
		CreatedAt:    now,
	}
}

// Currency 购物车币种，由第一条明细决定；空车返回空串
func (c *Cart) Currency() string {
	if len(c.Items) == 0 {
		return ""
	}
	return c.Items[0].UnitPrice.Currency
}

// AddItem 同一商品累加数量，否则追加新明细
func (c *Cart) AddItem(productID, productName string, unitPrice common.Money, quantity int) (*CartItem, error) {
	if cur := c.Currency(); cur != "" && cur != unitPrice.Currency {
		return nil, fmt.Errorf("%w: cart holds %s, item priced in %s", common.ErrCurrencyMismatch, cur, unitPrice.Currency)
	}
	if existing := c.findByProduct(productID); existing != nil {
		if quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be greater than zero", common.ErrValidationFailed)
		}
		if err := existing.setQuantity(existing.Quantity + quantity); err != nil {
			return nil, err
		}
		c.touch()
		return existing, nil
	}

	item, err := newCartItem(productID, productName, unitPrice, quantity)
	if err != nil {
		return nil, err
	}
	c.Items = append(c.Items, item)
	c.touch()
	return item, nil
}

// RemoveItem 移除明细，不存在时不做任何事
func (c *Cart) RemoveItem(itemID string) {
	for i, item := range c.Items {
		if item.ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.touch()
			return
		}
	}
}

// UpdateItemQuantity 修改明细数量
func (c *Cart) UpdateItemQuantity(itemID string, quantity int) error {
	item := c.findByID(itemID)
	if item == nil {
		return common.NotFound("cart item", itemID)
	}
	if err := item.setQuantity(quantity); err != nil {
		return err
	}
	c.touch()
	return nil
}

// Clear 清空购物车
func (c *Cart) Clear() {
	c.Items = nil
	c.touch()
}

// Total 所有明细金额之和
func (c *Cart) Total() common.Money {
	total := common.Zero(c.Currency())
	for _, item := range c.Items {
		// 币种在 AddItem 时已保证一致
		total, _ = total.Add(item.TotalPrice)
	}
	return total
}

// IsEmpty 是否为空
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalQuantity 商品件数
func (c *Cart) TotalQuantity() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) findByProduct(productID string) *CartItem {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item
		}
	}
	return nil
}

func (c *Cart) findByID(itemID string) *CartItem {
	for _, item := range c.Items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

func (c *Cart) touch() {
	c.LastModified = time.Now()
}
