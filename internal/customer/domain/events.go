package domain

import "time"

// 事件主题
const (
	TopicCustomerRegistered = "customer.registered"
	TopicCustomerDeleted    = "customer.deleted"
)

// CustomerRegisteredEvent 客户注册事件
type CustomerRegisteredEvent struct {
	CustomerID string    `json:"customer_id"`
	Email      string    `json:"email"`
	Timestamp  time.Time `json:"timestamp"`
}

// CustomerDeletedEvent 客户删除事件
type CustomerDeletedEvent struct {
	CustomerID string    `json:"customer_id"`
	Timestamp  time.Time `json:"timestamp"`
}
