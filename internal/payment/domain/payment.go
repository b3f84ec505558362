// Package domain 支付聚合根、网关接口与状态机
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/pkg/fsm"
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard      PaymentMethod = "DEBIT_CARD"
	PaymentMethodPayPal         PaymentMethod = "PAYPAL"
	PaymentMethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodStripe         PaymentMethod = "STRIPE"
	PaymentMethodApplePay       PaymentMethod = "APPLE_PAY"
	PaymentMethodGooglePay      PaymentMethod = "GOOGLE_PAY"
)

var paymentMethods = map[string]PaymentMethod{
	"CREDITCARD":     PaymentMethodCreditCard,
	"DEBITCARD":      PaymentMethodDebitCard,
	"PAYPAL":         PaymentMethodPayPal,
	"BANKTRANSFER":   PaymentMethodBankTransfer,
	"CASHONDELIVERY": PaymentMethodCashOnDelivery,
	"STRIPE":         PaymentMethodStripe,
	"APPLEPAY":       PaymentMethodApplePay,
	"GOOGLEPAY":      PaymentMethodGooglePay,
}

// ParsePaymentMethod 解析支付方式，忽略大小写、空格、下划线与连字符
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToUpper(s))
	if m, ok := paymentMethods[key]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", common.ErrValidationFailed, s)
}

// Payment 支付聚合根，通过 OrderID 引用订单
type Payment struct {
	ID                    string
	OrderID               string
	Amount                common.Money
	Status                common.PaymentStatus
	Method                PaymentMethod
	ExternalTransactionID string
	Gateway               string
	PaymentDate           time.Time
	UpdatedAt             time.Time
	// Version 乐观锁版本，由仓储维护
	Version int64

	fsm *fsm.Machine[common.PaymentStatus, common.PaymentStatus]
}

// Option 构造选项
type Option func(*Payment)

// WithGateway 指定处理该笔支付的网关
func WithGateway(gateway string) Option {
	return func(p *Payment) { p.Gateway = gateway }
}

// WithExternalTransactionID 指定网关侧交易号（如 payment intent id）
func WithExternalTransactionID(id string) Option {
	return func(p *Payment) { p.ExternalTransactionID = id }
}

// NewPayment 创建待支付记录
func NewPayment(orderID string, amount common.Money, method PaymentMethod, opts ...Option) (*Payment, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", common.ErrValidationFailed)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be greater than zero", common.ErrValidationFailed)
	}
	if method == "" {
		return nil, fmt.Errorf("%w: payment method is required", common.ErrValidationFailed)
	}
	now := time.Now()
	p := &Payment{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		Amount:      amount,
		Status:      common.PaymentStatusPending,
		Method:      method,
		PaymentDate: now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.initFSM()
	return p, nil
}

func (p *Payment) initFSM() {
	m := fsm.NewMachine[common.PaymentStatus, common.PaymentStatus](p.Status)
	m.AddTransition(common.PaymentStatusPending, common.PaymentStatusCompleted, common.PaymentStatusCompleted).
		AddTransition(common.PaymentStatusPending, common.PaymentStatusFailed, common.PaymentStatusFailed).
		AddTransition(common.PaymentStatusPending, common.PaymentStatusCancelled, common.PaymentStatusCancelled).
		AddTransition(common.PaymentStatusCompleted, common.PaymentStatusRefunded, common.PaymentStatusRefunded)
	p.fsm = m
}

// InitFSM 确保状态机与当前状态一致，从仓储加载后调用
func (p *Payment) InitFSM() {
	if p.fsm == nil || p.fsm.Current() != p.Status {
		p.initFSM()
	}
}

// MarkAsCompleted 支付成功并记录网关交易号，仅 PENDING 可完成；重放的成功事件在此被拒绝
func (p *Payment) MarkAsCompleted(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return fmt.Errorf("%w: transaction id is required to complete a payment", common.ErrValidationFailed)
	}
	if err := p.transition(ctx, common.PaymentStatusCompleted); err != nil {
		return err
	}
	p.ExternalTransactionID = transactionID
	return nil
}

// MarkAsFailed 支付失败
func (p *Payment) MarkAsFailed(ctx context.Context) error {
	return p.transition(ctx, common.PaymentStatusFailed)
}

// Cancel 取消待支付记录
func (p *Payment) Cancel(ctx context.Context) error {
	return p.transition(ctx, common.PaymentStatusCancelled)
}

// MarkAsRefunded 退款，仅已完成的支付可退
func (p *Payment) MarkAsRefunded(ctx context.Context) error {
	return p.transition(ctx, common.PaymentStatusRefunded)
}

// IsSuccessful 是否已完成
func (p *Payment) IsSuccessful() bool {
	return p.Status == common.PaymentStatusCompleted
}

func (p *Payment) transition(ctx context.Context, to common.PaymentStatus) error {
	p.InitFSM()
	if err := p.fsm.Trigger(ctx, to); err != nil {
		if errors.Is(err, fsm.ErrInvalidTransition) {
			return common.NewTransitionError("payment", string(p.Status), string(to))
		}
		return err
	}
	p.Status = to
	p.UpdatedAt = time.Now()
	return nil
}
