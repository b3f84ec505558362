package domain

import "time"

// 事件主题
const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
)

// OrderCreatedEvent 订单创建事件
type OrderCreatedEvent struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	ItemCount  int       `json:"item_count"`
	Total      string    `json:"total"`
	Currency   string    `json:"currency"`
	OccurredOn time.Time `json:"occurred_on"`
}

// OrderStatusChangedEvent 订单状态变更事件
type OrderStatusChangedEvent struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	OldStatus  string    `json:"old_status"`
	NewStatus  string    `json:"new_status"`
	OccurredOn time.Time `json:"occurred_on"`
}
