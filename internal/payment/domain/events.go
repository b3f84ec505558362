package domain

import "time"

// 事件主题
const (
	TopicPaymentCreated       = "payment.created"
	TopicPaymentStatusChanged = "payment.status_changed"
)

// PaymentCreatedEvent 支付创建事件
type PaymentCreatedEvent struct {
	PaymentID  string    `json:"payment_id"`
	OrderID    string    `json:"order_id"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	Method     string    `json:"method"`
	OccurredOn time.Time `json:"occurred_on"`
}

// PaymentStatusChangedEvent 支付状态变更事件
type PaymentStatusChangedEvent struct {
	PaymentID     string    `json:"payment_id"`
	OrderID       string    `json:"order_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	Source        string    `json:"source"`
	OccurredOn    time.Time `json:"occurred_on"`
}
