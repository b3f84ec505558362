package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/ecommerce/internal/common"
	order "github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/internal/payment/domain"
)

// CreatePaymentCommand 为订单创建支付，金额取订单总额
type CreatePaymentCommand struct {
	OrderID string `validate:"required,max=36"`
	Method  string `validate:"required,max=32"`
	// UseGateway 为 true 时先在网关创建 payment intent
	UseGateway bool
}

// ConfirmPaymentCommand 在网关确认 payment intent，成功则完成支付
type ConfirmPaymentCommand struct {
	PaymentID string `validate:"required"`
}

// CompletePaymentCommand 人工确认支付成功
type CompletePaymentCommand struct {
	PaymentID     string `validate:"required"`
	TransactionID string `validate:"required,max=255"`
}

// FailPaymentCommand 标记支付失败
type FailPaymentCommand struct {
	PaymentID string `validate:"required"`
}

// CancelPaymentCommand 取消待支付记录
type CancelPaymentCommand struct {
	PaymentID string `validate:"required"`
}

// RefundPaymentCommand 退款
type RefundPaymentCommand struct {
	PaymentID string `validate:"required"`
}

// ReconcileGatewayEventCommand 将一条网关事件应用到支付与订单
type ReconcileGatewayEventCommand struct {
	EventID       string `validate:"required,max=255"`
	Type          string `validate:"required,max=100"`
	TransactionID string `validate:"max=255"`
	// Payload 原始事件，找不到支付时随事件一起暂存
	Payload []byte
	// ParkedID 非空表示重放已暂存的事件
	ParkedID string
}

// PaymentCommandService 支付命令服务
type PaymentCommandService struct {
	repo        domain.PaymentRepository
	parked      domain.ParkedEventRepository
	orders      order.OrderRepository
	gateway     domain.Gateway
	gatewayName string
	publisher   common.EventPublisher
	logger      *slog.Logger
}

// NewPaymentCommandService 创建支付命令服务实例，gateway 为 nil 时不支持网关相关命令
func NewPaymentCommandService(
	repo domain.PaymentRepository,
	parked domain.ParkedEventRepository,
	orders order.OrderRepository,
	gateway domain.Gateway,
	gatewayName string,
	publisher common.EventPublisher,
	logger *slog.Logger,
) *PaymentCommandService {
	return &PaymentCommandService{
		repo:        repo,
		parked:      parked,
		orders:      orders,
		gateway:     gateway,
		gatewayName: gatewayName,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreatePayment 创建待支付记录；网关交易号只能在构造时传入
func (s *PaymentCommandService) CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (PaymentDTO, error) {
	method, err := domain.ParsePaymentMethod(cmd.Method)
	if err != nil {
		return PaymentDTO{}, err
	}
	o, err := s.orders.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return PaymentDTO{}, err
	}
	if o.Status == order.OrderStatusCanceled {
		return PaymentDTO{}, fmt.Errorf("%w: cannot pay for a canceled order", common.ErrInvalidStateTransition)
	}
	if existing, err := s.repo.GetByOrderID(ctx, o.ID); err == nil {
		if existing.Status == common.PaymentStatusPending || existing.Status == common.PaymentStatusCompleted {
			return PaymentDTO{}, common.NewValidationError("CreatePaymentCommand",
				fmt.Sprintf("order %s already has a %s payment", o.ID, existing.Status))
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		return PaymentDTO{}, err
	}

	var opts []domain.Option
	if cmd.UseGateway {
		if s.gateway == nil {
			return PaymentDTO{}, common.NewValidationError("CreatePaymentCommand", "payment gateway is not configured")
		}
		externalID, err := s.gateway.CreateIntent(ctx, o.Total, o.CustomerID, map[string]string{"order_id": o.ID})
		if err != nil {
			return PaymentDTO{}, err
		}
		opts = append(opts, domain.WithGateway(s.gatewayName), domain.WithExternalTransactionID(externalID))
	}

	p, err := domain.NewPayment(o.ID, o.Total, method, opts...)
	if err != nil {
		return PaymentDTO{}, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return PaymentDTO{}, err
	}
	if o.PaymentStatus != common.PaymentStatusPending {
		o.ApplyPaymentStatus(common.PaymentStatusPending)
		if err := s.orders.Save(ctx, o); err != nil {
			return PaymentDTO{}, err
		}
	}

	common.Notify(ctx, s.publisher, s.logger, domain.TopicPaymentCreated, p.OrderID, domain.PaymentCreatedEvent{
		PaymentID:  p.ID,
		OrderID:    p.OrderID,
		Amount:     p.Amount.Amount.String(),
		Currency:   p.Amount.Currency,
		Method:     string(p.Method),
		OccurredOn: time.Now(),
	})
	return toPaymentDTO(p), nil
}

// ConfirmPayment 网关确认成功时完成支付，否则保持 PENDING 等待网关事件
func (s *PaymentCommandService) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (PaymentDTO, error) {
	if s.gateway == nil {
		return PaymentDTO{}, common.NewValidationError("ConfirmPaymentCommand", "payment gateway is not configured")
	}
	p, err := s.repo.GetByID(ctx, cmd.PaymentID)
	if err != nil {
		return PaymentDTO{}, err
	}
	if p.ExternalTransactionID == "" {
		return PaymentDTO{}, common.NewValidationError("ConfirmPaymentCommand",
			fmt.Sprintf("payment %s has no gateway transaction", p.ID))
	}
	if p.Status != common.PaymentStatusPending {
		return PaymentDTO{}, common.NewTransitionError("payment", string(p.Status), string(common.PaymentStatusCompleted))
	}

	ok, err := s.gateway.ConfirmIntent(ctx, p.ExternalTransactionID)
	if err != nil {
		return PaymentDTO{}, err
	}
	if !ok {
		s.logger.InfoContext(ctx, "payment intent not yet confirmed", "payment_id", p.ID, "intent_id", p.ExternalTransactionID)
		return toPaymentDTO(p), nil
	}
	return s.apply(ctx, p, "gateway_confirm", func(p *domain.Payment) error {
		return p.MarkAsCompleted(ctx, p.ExternalTransactionID)
	})
}

// CompletePayment 人工完成支付
func (s *PaymentCommandService) CompletePayment(ctx context.Context, cmd CompletePaymentCommand) (PaymentDTO, error) {
	return s.mutate(ctx, cmd.PaymentID, func(p *domain.Payment) error {
		return p.MarkAsCompleted(ctx, cmd.TransactionID)
	})
}

// FailPayment 标记失败
func (s *PaymentCommandService) FailPayment(ctx context.Context, cmd FailPaymentCommand) (PaymentDTO, error) {
	return s.mutate(ctx, cmd.PaymentID, func(p *domain.Payment) error {
		return p.MarkAsFailed(ctx)
	})
}

// CancelPayment 取消
func (s *PaymentCommandService) CancelPayment(ctx context.Context, cmd CancelPaymentCommand) (PaymentDTO, error) {
	return s.mutate(ctx, cmd.PaymentID, func(p *domain.Payment) error {
		return p.Cancel(ctx)
	})
}

// RefundPayment 退款
func (s *PaymentCommandService) RefundPayment(ctx context.Context, cmd RefundPaymentCommand) (PaymentDTO, error) {
	return s.mutate(ctx, cmd.PaymentID, func(p *domain.Payment) error {
		return p.MarkAsRefunded(ctx)
	})
}

// ReconcileGatewayEvent 按网关交易号匹配支付并推进状态。
// 未知事件类型被忽略；找不到支付时暂存事件；状态机拒绝的流转（如重放的成功事件）视为已处理。
func (s *PaymentCommandService) ReconcileGatewayEvent(ctx context.Context, cmd ReconcileGatewayEventCommand) (ReconcileResultDTO, error) {
	result := ReconcileResultDTO{EventID: cmd.EventID, EventType: cmd.Type}
	log := s.logger.With("event_id", cmd.EventID, "event_type", cmd.Type, "transaction_id", cmd.TransactionID)

	var act func(*domain.Payment) error
	switch cmd.Type {
	case domain.EventPaymentSucceeded:
		act = func(p *domain.Payment) error { return p.MarkAsCompleted(ctx, cmd.TransactionID) }
	case domain.EventPaymentFailed:
		act = func(p *domain.Payment) error { return p.MarkAsFailed(ctx) }
	case domain.EventChargeRefunded:
		act = func(p *domain.Payment) error { return p.MarkAsRefunded(ctx) }
	default:
		log.DebugContext(ctx, "ignoring unhandled gateway event type")
		result.Outcome = OutcomeIgnored
		return result, s.resolve(ctx, cmd.ParkedID)
	}

	p, err := s.repo.GetByTransactionID(ctx, cmd.TransactionID)
	if errors.Is(err, common.ErrNotFound) {
		log.WarnContext(ctx, "no payment matches gateway event, parking it")
		result.Outcome = OutcomeParked
		return result, s.park(ctx, cmd)
	}
	if err != nil {
		return ReconcileResultDTO{}, err
	}
	result.PaymentID = p.ID

	dto, err := s.apply(ctx, p, "webhook:"+cmd.Type, act)
	if errors.Is(err, common.ErrInvalidStateTransition) {
		log.InfoContext(ctx, "gateway event does not change payment state", "payment_id", p.ID, "status", p.Status, "reason", err)
		result.Outcome = OutcomeNoop
		result.Status = string(p.Status)
		return result, s.resolve(ctx, cmd.ParkedID)
	}
	if err != nil {
		return ReconcileResultDTO{}, err
	}
	result.Outcome = OutcomeApplied
	result.Status = dto.Status
	return result, s.resolve(ctx, cmd.ParkedID)
}

func (s *PaymentCommandService) park(ctx context.Context, cmd ReconcileGatewayEventCommand) error {
	reason := fmt.Sprintf("no payment with transaction id %q", cmd.TransactionID)
	if cmd.ParkedID != "" {
		return s.parked.MarkAttempt(ctx, cmd.ParkedID, reason)
	}
	evt := domain.WebhookEvent{ID: cmd.EventID, Type: cmd.Type, TransactionID: cmd.TransactionID}
	return s.parked.Park(ctx, domain.NewParkedEvent(evt, cmd.Payload, reason))
}

func (s *PaymentCommandService) resolve(ctx context.Context, parkedID string) error {
	if parkedID == "" {
		return nil
	}
	return s.parked.Resolve(ctx, parkedID)
}

func (s *PaymentCommandService) mutate(ctx context.Context, id string, fn func(*domain.Payment) error) (PaymentDTO, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return PaymentDTO{}, err
	}
	return s.apply(ctx, p, "manual", fn)
}

// apply 推进支付状态并在同一事务内同步订单的 paymentStatus
func (s *PaymentCommandService) apply(ctx context.Context, p *domain.Payment, source string, fn func(*domain.Payment) error) (PaymentDTO, error) {
	from := p.Status
	if err := fn(p); err != nil {
		return PaymentDTO{}, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return PaymentDTO{}, err
	}
	if err := s.mirrorOrder(ctx, p); err != nil {
		return PaymentDTO{}, err
	}

	common.Notify(ctx, s.publisher, s.logger, domain.TopicPaymentStatusChanged, p.OrderID, domain.PaymentStatusChangedEvent{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		TransactionID: p.ExternalTransactionID,
		OldStatus:     string(from),
		NewStatus:     string(p.Status),
		Source:        source,
		OccurredOn:    time.Now(),
	})
	return toPaymentDTO(p), nil
}

func (s *PaymentCommandService) mirrorOrder(ctx context.Context, p *domain.Payment) error {
	o, err := s.orders.GetByID(ctx, p.OrderID)
	if errors.Is(err, common.ErrNotFound) {
		s.logger.WarnContext(ctx, "payment references a missing order", "payment_id", p.ID, "order_id", p.OrderID)
		return nil
	}
	if err != nil {
		return err
	}
	o.ApplyPaymentStatus(p.Status)
	return s.orders.Save(ctx, o)
}
