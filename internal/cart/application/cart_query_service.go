package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
)

// GetCartByCustomerQuery 查询客户购物车
type GetCartByCustomerQuery struct {
	CustomerID string `validate:"required"`
}

// CartQueryService 购物车查询服务
type CartQueryService struct {
	repo domain.CartRepository
}

// NewCartQueryService 创建购物车查询服务实例
func NewCartQueryService(repo domain.CartRepository) *CartQueryService {
	return &CartQueryService{repo: repo}
}

// GetCartByCustomer 获取客户购物车
func (s *CartQueryService) GetCartByCustomer(ctx context.Context, q GetCartByCustomerQuery) (CartDTO, error) {
	cart, err := s.repo.GetByCustomerID(ctx, q.CustomerID)
	if err != nil {
		return CartDTO{}, err
	}
	return toCartDTO(cart), nil
}
