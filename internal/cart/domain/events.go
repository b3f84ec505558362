package domain

import "time"

// 事件主题
const (
	TopicCartCreated     = "cart.created"
	TopicCartItemAdded   = "cart.item_added"
	TopicCartItemRemoved = "cart.item_removed"
	TopicCartCleared     = "cart.cleared"
)

// CartCreatedEvent 购物车创建事件
type CartCreatedEvent struct {
	CartID     string    `json:"cart_id"`
	CustomerID string    `json:"customer_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// CartItemAddedEvent 购物车添加商品事件
type CartItemAddedEvent struct {
	CartID     string    `json:"cart_id"`
	CustomerID string    `json:"customer_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	Currency   string    `json:"currency"`
	Timestamp  time.Time `json:"timestamp"`
}

// CartItemRemovedEvent 购物车移除商品事件
type CartItemRemovedEvent struct {
	CartID     string    `json:"cart_id"`
	CustomerID string    `json:"customer_id"`
	ItemID     string    `json:"item_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// CartClearedEvent 购物车清空事件
type CartClearedEvent struct {
	CartID     string    `json:"cart_id"`
	CustomerID string    `json:"customer_id"`
	Timestamp  time.Time `json:"timestamp"`
}
