package application

import (
	"time"

	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/utils"
)

// OrderItemDTO 订单明细视图
type OrderItemDTO struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	TotalPrice  string `json:"total_price"`
}

// OrderDTO 订单视图
type OrderDTO struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	Currency        string          `json:"currency"`
	Subtotal        string          `json:"subtotal"`
	Tax             string          `json:"tax"`
	ShippingCost    string          `json:"shipping_cost"`
	Total           string          `json:"total"`
	ShippingAddress domain.Address  `json:"shipping_address"`
	BillingAddress  *domain.Address `json:"billing_address,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	OrderDate       time.Time       `json:"order_date"`
	Items           []OrderItemDTO  `json:"items"`
}

// OrderListDTO 订单分页结果
type OrderListDTO struct {
	Items      []OrderDTO        `json:"items"`
	Pagination *utils.Pagination `json:"pagination"`
}

func toOrderDTO(o *domain.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice.Format(),
			Quantity:    it.Quantity,
			TotalPrice:  it.TotalPrice.Format(),
		})
	}
	return OrderDTO{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Currency:        o.Currency,
		Subtotal:        o.Subtotal.Format(),
		Tax:             o.Tax.Format(),
		ShippingCost:    o.ShippingCost.Format(),
		Total:           o.Total.Format(),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Notes:           o.Notes,
		OrderDate:       o.OrderDate,
		Items:           items,
	}
}
