package domain

import "time"

// 事件主题
const (
	TopicProductCreated      = "product.created"
	TopicProductStockChanged = "product.stock_changed"
	TopicProductLowStock     = "product.low_stock"
)

// ProductCreatedEvent 商品创建事件
type ProductCreatedEvent struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Price     string    `json:"price"`
	Currency  string    `json:"currency"`
	Stock     int       `json:"stock"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductStockChangedEvent 商品库存变更事件
type ProductStockChangedEvent struct {
	ProductID string    `json:"product_id"`
	OldStock  int       `json:"old_stock"`
	NewStock  int       `json:"new_stock"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductLowStockEvent 库存告警
type ProductLowStockEvent struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}
