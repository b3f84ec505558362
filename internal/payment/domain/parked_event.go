package domain

import (
	"time"

	"github.com/google/uuid"
)

// ParkedEvent 找不到对应支付记录的网关事件，等待重放
type ParkedEvent struct {
	ID            string
	EventID       string
	Type          string
	TransactionID string
	Payload       []byte
	Attempts      int
	LastError     string
	ReceivedAt    time.Time
}

// NewParkedEvent 暂存一条未匹配事件
func NewParkedEvent(evt WebhookEvent, payload []byte, reason string) *ParkedEvent {
	return &ParkedEvent{
		ID:            uuid.NewString(),
		EventID:       evt.ID,
		Type:          evt.Type,
		TransactionID: evt.TransactionID,
		Payload:       payload,
		Attempts:      1,
		LastError:     reason,
		ReceivedAt:    time.Now(),
	}
}

// Event 还原为网关事件
func (e *ParkedEvent) Event() WebhookEvent {
	return WebhookEvent{ID: e.EventID, Type: e.Type, TransactionID: e.TransactionID, Created: e.ReceivedAt}
}
