package application

import (
	"context"
	"log/slog"

	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/internal/pipeline"
)

// OrderApplicationService 订单门面，整合命令和查询服务
type OrderApplicationService struct {
	pipeline *pipeline.Pipeline
	Command  *OrderCommandService
	Query    *OrderQueryService
}

// NewOrderApplicationService 创建门面并向管道注册处理器与校验规则
func NewOrderApplicationService(p *pipeline.Pipeline, repo domain.OrderRepository, carts cart.CartRepository, publisher common.EventPublisher, logger *slog.Logger) *OrderApplicationService {
	s := &OrderApplicationService{
		pipeline: p,
		Command:  NewOrderCommandService(repo, carts, publisher, logger),
		Query:    NewOrderQueryService(repo),
	}

	pipeline.AddRule(p.Validator(), SameCurrencyRule)

	pipeline.HandleCommand(p, s.Command.CreateOrder)
	pipeline.HandleCommand(p, s.Command.CheckoutCart)
	pipeline.HandleCommand(p, s.Command.AddOrderItem)
	pipeline.HandleCommand(p, s.Command.RemoveOrderItem)
	pipeline.HandleCommand(p, s.Command.SetOrderCharges)
	pipeline.HandleCommand(p, s.Command.UpdateOrderStatus)
	pipeline.HandleCommand(p, s.Command.CancelOrder)
	pipeline.HandleQuery(p, s.Query.GetOrderByID)
	pipeline.HandleQuery(p, s.Query.ListOrdersByCustomer)
	return s
}

// --- Command (Writes) ---

func (s *OrderApplicationService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (OrderDTO, error) {
	return pipeline.Send[OrderDTO](ctx, s.pipeline, cmd)
}

func (s *OrderApplicationService) CheckoutCart(ctx context.Context, cmd CheckoutCartCommand) (OrderDTO, error) {
	return pipeline.Send[OrderDTO](ctx, s.pipeline, cmd)
}

func (s *OrderApplicationService) AddOrderItem(ctx context.Context, cmd AddOrderItemCommand) (OrderDTO, error) {
	return pipeline.Send[OrderDTO](ctx, s.pipeline, cmd)
}

func (s *OrderApplicationService) RemoveOrderItem(ctx context.Context, cmd RemoveOrderItemCommand) (OrderDTO, error) {
	return pipeline.Send[OrderDTO](ctx, s.pipeline, cmd)
}

func (s *OrderApplicationService) SetOrderCharges(ctx context.Context, cmd SetOrderChargesCommand) (OrderDTO, error) {
	return pipeline.Send[OrderDTO](ctx, s.pipeline, cmd)
}

func (s *OrderApplicationService) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (OrderDTO, error) {
	return pipeline.Send[OrderDTO](ctx, s.pipeline, cmd)
}

func (s *OrderApplicationService) CancelOrder(ctx context.Context, orderID string) (OrderDTO, error) {
	return pipeline.Send[OrderDTO](ctx, s.pipeline, CancelOrderCommand{OrderID: orderID})
}

// --- Query (Reads) ---

func (s *OrderApplicationService) GetOrderByID(ctx context.Context, orderID string) (OrderDTO, error) {
	return pipeline.Send[OrderDTO](ctx, s.pipeline, GetOrderByIDQuery{OrderID: orderID})
}

func (s *OrderApplicationService) ListOrdersByCustomer(ctx context.Context, q ListOrdersByCustomerQuery) (OrderListDTO, error) {
	return pipeline.Send[OrderListDTO](ctx, s.pipeline, q)
}
