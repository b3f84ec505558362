package application

import (
	"time"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
)

// CartItemDTO 购物车明细视图
type CartItemDTO struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	TotalPrice  string `json:"total_price"`
}

// CartDTO 购物车视图
type CartDTO struct {
	ID           string        `json:"id"`
	CustomerID   string        `json:"customer_id"`
	Currency     string        `json:"currency,omitempty"`
	TotalAmount  string        `json:"total_amount"`
	TotalItems   int           `json:"total_items"`
	LastModified time.Time     `json:"last_modified"`
	Items        []CartItemDTO `json:"items"`
}

func toCartDTO(c *domain.Cart) CartDTO {
	items := make([]CartItemDTO, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, CartItemDTO{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice.Amount.StringFixed(2),
			Quantity:    it.Quantity,
			TotalPrice:  it.TotalPrice.Amount.StringFixed(2),
		})
	}
	return CartDTO{
		ID:           c.ID,
		CustomerID:   c.CustomerID,
		Currency:     c.Currency(),
		TotalAmount:  c.Total().Amount.StringFixed(2),
		TotalItems:   c.TotalQuantity(),
		LastModified: c.LastModified,
		Items:        items,
	}
}
