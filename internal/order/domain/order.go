// Package domain 订单聚合根与状态机
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/pkg/fsm"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

// ParseOrderStatus 解析目标状态
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", common.ErrValidationFailed, s)
}

// OrderItem 订单明细，名称与单价为下单时的快照
type OrderItem struct {
	ID          string
	ProductID   string
	ProductName string
	UnitPrice   common.Money
	Quantity    int
	TotalPrice  common.Money
}

// NewOrderItem 创建订单明细
func NewOrderItem(productID, productName string, unitPrice common.Money, quantity int) (*OrderItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", common.ErrValidationFailed)
	}
	if productName == "" {
		return nil, fmt.Errorf("%w: product name is required", common.ErrValidationFailed)
	}
	if !unitPrice.IsPositive() {
		return nil, fmt.Errorf("%w: unit price must be greater than zero", common.ErrValidationFailed)
	}
	return &OrderItem{
		ID:          uuid.NewString(),
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		TotalPrice:  unitPrice.Multiply(quantity),
	}, nil
}

// Order 订单聚合根
type Order struct {
	ID              string
	CustomerID      string
	Currency        string
	Items           []*OrderItem
	Status          OrderStatus
	PaymentStatus   common.PaymentStatus
	Subtotal        common.Money
	Tax             common.Money
	ShippingCost    common.Money
	Total           common.Money
	ShippingAddress Address
	BillingAddress  *Address
	Notes           string
	OrderDate       time.Time
	UpdatedAt       time.Time
	// Version 乐观锁版本，由仓储维护
	Version int64

	fsm *fsm.Machine[OrderStatus, OrderStatus]
}

// NewOrder 创建待处理订单，金额全部以 currency 计价
func NewOrder(customerID, currency string, shipping Address, billing *Address, notes string) (*Order, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", common.ErrValidationFailed)
	}
	if !common.IsValidCurrency(currency) {
		return nil, fmt.Errorf("%w: invalid currency %q", common.ErrValidationFailed, currency)
	}
	if shipping.IsZero() {
		return nil, fmt.Errorf("%w: shipping address is required", common.ErrValidationFailed)
	}
	now := time.Now()
	o := &Order{
		ID:              uuid.NewString(),
		CustomerID:      customerID,
		Currency:        currency,
		Status:          OrderStatusPending,
		PaymentStatus:   common.PaymentStatusPending,
		Subtotal:        common.Zero(currency),
		Tax:             common.Zero(currency),
		ShippingCost:    common.Zero(currency),
		Total:           common.Zero(currency),
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Notes:           notes,
		OrderDate:       now,
		UpdatedAt:       now,
	}
	o.initFSM()
	return o, nil
}

func (o *Order) initFSM() {
	m := fsm.NewMachine[OrderStatus, OrderStatus](o.Status)
	m.AddTransition(OrderStatusPending, OrderStatusProcessing, OrderStatusProcessing).
		AddTransition(OrderStatusProcessing, OrderStatusShipped, OrderStatusShipped).
		AddTransition(OrderStatusShipped, OrderStatusDelivered, OrderStatusDelivered).
		AddTransition(OrderStatusPending, OrderStatusCanceled, OrderStatusCanceled).
		AddTransition(OrderStatusProcessing, OrderStatusCanceled, OrderStatusCanceled)
	o.fsm = m
}

// InitFSM 确保状态机与当前状态一致，从仓储加载后调用
func (o *Order) InitFSM() {
	if o.fsm == nil || o.fsm.Current() != o.Status {
		o.initFSM()
	}
}

// TransitionTo 流转到目标状态，不允许的流转返回 *common.TransitionError
func (o *Order) TransitionTo(ctx context.Context, to OrderStatus) error {
	o.InitFSM()
	if err := o.fsm.Trigger(ctx, to); err != nil {
		if errors.Is(err, fsm.ErrInvalidTransition) {
			return common.NewTransitionError("order", string(o.Status), string(to))
		}
		return err
	}
	o.Status = to
	o.touch()
	return nil
}

// MarkAsProcessing 开始处理
func (o *Order) MarkAsProcessing(ctx context.Context) error {
	return o.TransitionTo(ctx, OrderStatusProcessing)
}

// MarkAsShipped 已发货
func (o *Order) MarkAsShipped(ctx context.Context) error {
	return o.TransitionTo(ctx, OrderStatusShipped)
}

// MarkAsDelivered 已送达
func (o *Order) MarkAsDelivered(ctx context.Context) error {
	return o.TransitionTo(ctx, OrderStatusDelivered)
}

// Cancel 取消订单，仅 PENDING 与 PROCESSING 可取消
func (o *Order) Cancel(ctx context.Context) error {
	return o.TransitionTo(ctx, OrderStatusCanceled)
}

// CanBeCanceled 是否可取消
func (o *Order) CanBeCanceled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// IsCompleted 是否已送达
func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusDelivered
}

// AddItem 追加明细，仅限 PENDING
func (o *Order) AddItem(item *OrderItem) error {
	if err := o.requirePending("add items to"); err != nil {
		return err
	}
	if item.UnitPrice.Currency != o.Currency {
		return fmt.Errorf("%w: order is in %s, item priced in %s", common.ErrCurrencyMismatch, o.Currency, item.UnitPrice.Currency)
	}
	o.Items = append(o.Items, item)
	return o.recalculate()
}

// RemoveItem 移除明细，仅限 PENDING；不存在时不做任何事
func (o *Order) RemoveItem(itemID string) error {
	if err := o.requirePending("remove items from"); err != nil {
		return err
	}
	for i, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			return o.recalculate()
		}
	}
	return nil
}

// SetTax 设置税费
func (o *Order) SetTax(tax common.Money) error {
	if err := o.requirePending("set tax on"); err != nil {
		return err
	}
	if err := o.checkCharge("tax", tax); err != nil {
		return err
	}
	o.Tax = tax
	return o.recalculate()
}

// SetShippingCost 设置运费
func (o *Order) SetShippingCost(cost common.Money) error {
	if err := o.requirePending("set shipping cost on"); err != nil {
		return err
	}
	if err := o.checkCharge("shipping cost", cost); err != nil {
		return err
	}
	o.ShippingCost = cost
	return o.recalculate()
}

// ApplyPaymentStatus 同步支付状态，与订单状态相互独立
func (o *Order) ApplyPaymentStatus(status common.PaymentStatus) {
	o.PaymentStatus = status
	o.touch()
}

func (o *Order) checkCharge(name string, m common.Money) error {
	if m.Currency != o.Currency {
		return fmt.Errorf("%w: order is in %s, %s in %s", common.ErrCurrencyMismatch, o.Currency, name, m.Currency)
	}
	if m.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", common.ErrValidationFailed, name)
	}
	return nil
}

func (o *Order) requirePending(action string) error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("%w: cannot %s a %s order", common.ErrInvalidStateTransition, action, o.Status)
	}
	return nil
}

func (o *Order) recalculate() error {
	subtotal := common.Zero(o.Currency)
	for _, item := range o.Items {
		var err error
		if subtotal, err = subtotal.Add(item.TotalPrice); err != nil {
			return err
		}
	}
	total, err := subtotal.Add(o.Tax)
	if err != nil {
		return err
	}
	if total, err = total.Add(o.ShippingCost); err != nil {
		return err
	}
	o.Subtotal = subtotal
	o.Total = total
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now()
}
