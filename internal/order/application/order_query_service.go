package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/utils"
)

// GetOrderByIDQuery 按 ID 查询订单
type GetOrderByIDQuery struct {
	OrderID string `validate:"required"`
}

// ListOrdersByCustomerQuery 分页查询客户订单
type ListOrdersByCustomerQuery struct {
	CustomerID string `validate:"required"`
	Page       int    `validate:"gte=0"`
	PageSize   int    `validate:"gte=0,lte=100"`
}

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	repo domain.OrderRepository
}

// NewOrderQueryService 创建订单查询服务实例
func NewOrderQueryService(repo domain.OrderRepository) *OrderQueryService {
	return &OrderQueryService{repo: repo}
}

// GetOrderByID 获取订单详情
func (s *OrderQueryService) GetOrderByID(ctx context.Context, q GetOrderByIDQuery) (OrderDTO, error) {
	o, err := s.repo.GetByID(ctx, q.OrderID)
	if err != nil {
		return OrderDTO{}, err
	}
	return toOrderDTO(o), nil
}

// ListOrdersByCustomer 列出客户订单
func (s *OrderQueryService) ListOrdersByCustomer(ctx context.Context, q ListOrdersByCustomerQuery) (OrderListDTO, error) {
	page := utils.NewPagination(q.Page, q.PageSize, 0)
	orders, total, err := s.repo.ListByCustomer(ctx, q.CustomerID, page.Offset(), page.Limit())
	if err != nil {
		return OrderListDTO{}, err
	}
	items := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		items = append(items, toOrderDTO(o))
	}
	return OrderListDTO{Items: items, Pagination: page.WithTotal(total)}, nil
}
