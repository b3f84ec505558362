package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/ecommerce/internal/common"
	order "github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/internal/payment/domain"
	"github.com/wyfcoding/ecommerce/internal/pipeline"
)

// Dependencies 支付门面依赖；Gateway、Idempotency、Recorder 可为 nil
type Dependencies struct {
	Payments    domain.PaymentRepository
	Parked      domain.ParkedEventRepository
	Orders      order.OrderRepository
	Gateway     domain.Gateway
	GatewayName string
	Idempotency domain.IdempotencyStore
	Publisher   common.EventPublisher
	Recorder    EventRecorder
	Logger      *slog.Logger
}

// PaymentApplicationService 支付门面，整合命令、查询与 Webhook 入口
type PaymentApplicationService struct {
	pipeline *pipeline.Pipeline
	Command  *PaymentCommandService
	Query    *PaymentQueryService
	Events   *GatewayEventHandler
}

// NewPaymentApplicationService 创建门面并向管道注册处理器
func NewPaymentApplicationService(p *pipeline.Pipeline, deps Dependencies) *PaymentApplicationService {
	s := &PaymentApplicationService{
		pipeline: p,
		Command:  NewPaymentCommandService(deps.Payments, deps.Parked, deps.Orders, deps.Gateway, deps.GatewayName, deps.Publisher, deps.Logger),
		Query:    NewPaymentQueryService(deps.Payments, deps.Parked),
	}
	if deps.Gateway != nil {
		s.Events = NewGatewayEventHandler(p, deps.Gateway, deps.Idempotency, deps.Recorder, deps.Logger)
	}

	pipeline.HandleCommand(p, s.Command.CreatePayment)
	pipeline.HandleCommand(p, s.Command.ConfirmPayment)
	pipeline.HandleCommand(p, s.Command.CompletePayment)
	pipeline.HandleCommand(p, s.Command.FailPayment)
	pipeline.HandleCommand(p, s.Command.CancelPayment)
	pipeline.HandleCommand(p, s.Command.RefundPayment)
	pipeline.HandleCommand(p, s.Command.ReconcileGatewayEvent)
	pipeline.HandleQuery(p, s.Query.GetPaymentByID)
	pipeline.HandleQuery(p, s.Query.GetPaymentByOrder)
	pipeline.HandleQuery(p, s.Query.GetPaymentByTransactionID)
	pipeline.HandleQuery(p, s.Query.ListParkedGatewayEvents)
	pipeline.HandleQuery(p, s.Query.LoadParkedGatewayEvents)
	return s
}

// --- Command (Writes) ---

func (s *PaymentApplicationService) CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (PaymentDTO, error) {
	return pipeline.Send[PaymentDTO](ctx, s.pipeline, cmd)
}

func (s *PaymentApplicationService) ConfirmPayment(ctx context.Context, paymentID string) (PaymentDTO, error) {
	return pipeline.Send[PaymentDTO](ctx, s.pipeline, ConfirmPaymentCommand{PaymentID: paymentID})
}

func (s *PaymentApplicationService) CompletePayment(ctx context.Context, cmd CompletePaymentCommand) (PaymentDTO, error) {
	return pipeline.Send[PaymentDTO](ctx, s.pipeline, cmd)
}

func (s *PaymentApplicationService) FailPayment(ctx context.Context, paymentID string) (PaymentDTO, error) {
	return pipeline.Send[PaymentDTO](ctx, s.pipeline, FailPaymentCommand{PaymentID: paymentID})
}

func (s *PaymentApplicationService) CancelPayment(ctx context.Context, paymentID string) (PaymentDTO, error) {
	return pipeline.Send[PaymentDTO](ctx, s.pipeline, CancelPaymentCommand{PaymentID: paymentID})
}

func (s *PaymentApplicationService) RefundPayment(ctx context.Context, paymentID string) (PaymentDTO, error) {
	return pipeline.Send[PaymentDTO](ctx, s.pipeline, RefundPaymentCommand{PaymentID: paymentID})
}

func (s *PaymentApplicationService) ReconcileGatewayEvent(ctx context.Context, cmd ReconcileGatewayEventCommand) (ReconcileResultDTO, error) {
	return pipeline.Send[ReconcileResultDTO](ctx, s.pipeline, cmd)
}

// HandleGatewayEvent Webhook 入口，未配置网关时拒绝所有事件
func (s *PaymentApplicationService) HandleGatewayEvent(ctx context.Context, payload []byte, signature string) error {
	if s.Events == nil {
		return common.ErrWebhookSignatureInvalid
	}
	return s.Events.HandleGatewayEvent(ctx, payload, signature)
}

// ReplayParkedGatewayEvents 重放暂存事件，已匹配的事件被逻辑删除
func (s *PaymentApplicationService) ReplayParkedGatewayEvents(ctx context.Context, limit int) (ReplayResultDTO, error) {
	parked, err := pipeline.Send[[]*domain.ParkedEvent](ctx, s.pipeline, LoadParkedGatewayEventsQuery{Limit: limit})
	if err != nil {
		return ReplayResultDTO{}, err
	}
	h := s.Events
	if h == nil {
		h = &GatewayEventHandler{pipeline: s.pipeline, logger: s.Command.logger}
	}
	return h.ReplayParked(ctx, parked)
}

// --- Query (Reads) ---

func (s *PaymentApplicationService) GetPaymentByID(ctx context.Context, paymentID string) (PaymentDTO, error) {
	return pipeline.Send[PaymentDTO](ctx, s.pipeline, GetPaymentByIDQuery{PaymentID: paymentID})
}

func (s *PaymentApplicationService) GetPaymentByOrder(ctx context.Context, orderID string) (PaymentDTO, error) {
	return pipeline.Send[PaymentDTO](ctx, s.pipeline, GetPaymentByOrderQuery{OrderID: orderID})
}

func (s *PaymentApplicationService) GetPaymentByTransactionID(ctx context.Context, transactionID string) (PaymentDTO, error) {
	return pipeline.Send[PaymentDTO](ctx, s.pipeline, GetPaymentByTransactionIDQuery{TransactionID: transactionID})
}

func (s *PaymentApplicationService) ListParkedGatewayEvents(ctx context.Context, limit int) ([]ParkedEventDTO, error) {
	return pipeline.Send[[]ParkedEventDTO](ctx, s.pipeline, ListParkedGatewayEventsQuery{Limit: limit})
}
