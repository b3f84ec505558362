package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/customer/domain"
	"github.com/wyfcoding/ecommerce/pkg/utils"
)

// GetCustomerByIDQuery 按 ID 查询客户
type GetCustomerByIDQuery struct {
	CustomerID string `validate:"required"`
}

// ListCustomersQuery 分页查询客户
type ListCustomersQuery struct {
	ActiveOnly bool
	Page       int `validate:"gte=0"`
	PageSize   int `validate:"gte=0,lte=100"`
}

// CustomerQueryService 客户查询服务
type CustomerQueryService struct {
	repo domain.CustomerRepository
}

func NewCustomerQueryService(repo domain.CustomerRepository) *CustomerQueryService {
	return &CustomerQueryService{repo: repo}
}

func (s *CustomerQueryService) GetCustomerByID(ctx context.Context, q GetCustomerByIDQuery) (CustomerDTO, error) {
	c, err := s.repo.GetByID(ctx, q.CustomerID)
	if err != nil {
		return CustomerDTO{}, err
	}
	return toCustomerDTO(c), nil
}

func (s *CustomerQueryService) ListCustomers(ctx context.Context, q ListCustomersQuery) (CustomerListDTO, error) {
	page := utils.NewPagination(q.Page, q.PageSize, 0)
	customers, total, err := s.repo.List(ctx, domain.CustomerFilter{
		ActiveOnly: q.ActiveOnly,
		Offset:     page.Offset(),
		Limit:      page.Limit(),
	})
	if err != nil {
		return CustomerListDTO{}, err
	}
	items := make([]CustomerDTO, 0, len(customers))
	for _, c := range customers {
		items = append(items, toCustomerDTO(c))
	}
	return CustomerListDTO{Items: items, Pagination: page.WithTotal(total)}, nil
}
