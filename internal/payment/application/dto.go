package application

import (
	"time"

	"github.com/wyfcoding/ecommerce/internal/payment/domain"
)

// PaymentDTO 支付视图
type PaymentDTO struct {
	ID                    string    `json:"id"`
	OrderID               string    `json:"order_id"`
	Amount                string    `json:"amount"`
	Currency              string    `json:"currency"`
	Status                string    `json:"status"`
	Method                string    `json:"method"`
	ExternalTransactionID string    `json:"external_transaction_id,omitempty"`
	Gateway               string    `json:"gateway,omitempty"`
	PaymentDate           time.Time `json:"payment_date"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// 对账结果
const (
	OutcomeApplied = "applied"
	OutcomeIgnored = "ignored"
	OutcomeNoop    = "noop"
	OutcomeParked  = "parked"
	// OutcomeDuplicate 同一事件已处理过，仅由 GatewayEventHandler 给出
	OutcomeDuplicate = "duplicate"
)

// ReconcileResultDTO 一次网关事件对账的结果
type ReconcileResultDTO struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Outcome   string `json:"outcome"`
	PaymentID string `json:"payment_id,omitempty"`
	Status    string `json:"status,omitempty"`
}

// ParkedEventDTO 未匹配网关事件视图
type ParkedEventDTO struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	TransactionID string    `json:"transaction_id"`
	Attempts      int       `json:"attempts"`
	LastError     string    `json:"last_error,omitempty"`
	ReceivedAt    time.Time `json:"received_at"`
}

// ReplayResultDTO 重放结果统计
type ReplayResultDTO struct {
	Processed   int `json:"processed"`
	Resolved    int `json:"resolved"`
	StillParked int `json:"still_parked"`
	Failed      int `json:"failed"`
}

func toPaymentDTO(p *domain.Payment) PaymentDTO {
	return PaymentDTO{
		ID:                    p.ID,
		OrderID:               p.OrderID,
		Amount:                p.Amount.Format(),
		Currency:              p.Amount.Currency,
		Status:                string(p.Status),
		Method:                string(p.Method),
		ExternalTransactionID: p.ExternalTransactionID,
		Gateway:               p.Gateway,
		PaymentDate:           p.PaymentDate,
		UpdatedAt:             p.UpdatedAt,
	}
}

func toParkedEventDTO(e *domain.ParkedEvent) ParkedEventDTO {
	return ParkedEventDTO{
		ID:            e.ID,
		EventID:       e.EventID,
		Type:          e.Type,
		TransactionID: e.TransactionID,
		Attempts:      e.Attempts,
		LastError:     e.LastError,
		ReceivedAt:    e.ReceivedAt,
	}
}
