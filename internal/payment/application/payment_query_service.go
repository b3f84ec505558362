package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/payment/domain"
)

// GetPaymentByIDQuery 按 ID 查询支付
type GetPaymentByIDQuery struct {
	PaymentID string `validate:"required"`
}

// GetPaymentByOrderQuery 查询订单最近一笔支付
type GetPaymentByOrderQuery struct {
	OrderID string `validate:"required"`
}

// GetPaymentByTransactionIDQuery 按网关交易号查询支付
type GetPaymentByTransactionIDQuery struct {
	TransactionID string `validate:"required"`
}

// ListParkedGatewayEventsQuery 列出待重放的网关事件
type ListParkedGatewayEventsQuery struct {
	Limit int `validate:"gte=0,lte=500"`
}

// LoadParkedGatewayEventsQuery 载入待重放的暂存事件，含原始报文
type LoadParkedGatewayEventsQuery struct {
	Limit int `validate:"gte=0,lte=500"`
}

// PaymentQueryService 支付查询服务
type PaymentQueryService struct {
	repo   domain.PaymentRepository
	parked domain.ParkedEventRepository
}

// NewPaymentQueryService 创建支付查询服务实例
func NewPaymentQueryService(repo domain.PaymentRepository, parked domain.ParkedEventRepository) *PaymentQueryService {
	return &PaymentQueryService{repo: repo, parked: parked}
}

func (s *PaymentQueryService) GetPaymentByID(ctx context.Context, q GetPaymentByIDQuery) (PaymentDTO, error) {
	return s.one(s.repo.GetByID(ctx, q.PaymentID))
}

func (s *PaymentQueryService) GetPaymentByOrder(ctx context.Context, q GetPaymentByOrderQuery) (PaymentDTO, error) {
	return s.one(s.repo.GetByOrderID(ctx, q.OrderID))
}

func (s *PaymentQueryService) GetPaymentByTransactionID(ctx context.Context, q GetPaymentByTransactionIDQuery) (PaymentDTO, error) {
	return s.one(s.repo.GetByTransactionID(ctx, q.TransactionID))
}

// ListParkedGatewayEvents 按接收时间升序
func (s *PaymentQueryService) ListParkedGatewayEvents(ctx context.Context, q ListParkedGatewayEventsQuery) ([]ParkedEventDTO, error) {
	events, err := s.parked.List(ctx, q.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]ParkedEventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toParkedEventDTO(e))
	}
	return out, nil
}

func (s *PaymentQueryService) LoadParkedGatewayEvents(ctx context.Context, q LoadParkedGatewayEventsQuery) ([]*domain.ParkedEvent, error) {
	return s.parked.List(ctx, q.Limit)
}

func (s *PaymentQueryService) one(p *domain.Payment, err error) (PaymentDTO, error) {
	if err != nil {
		return PaymentDTO{}, err
	}
	return toPaymentDTO(p), nil
}
