package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/utils"
)

// GetProductByIDQuery 按 ID 查询商品
type GetProductByIDQuery struct {
	ProductID string `validate:"required"`
}

// ListProductsQuery 分页查询商品
type ListProductsQuery struct {
	CategoryID    string `validate:"max=36"`
	AvailableOnly bool
	Page          int `validate:"gte=0"`
	PageSize      int `validate:"gte=0,lte=100"`
}

// CatalogQueryService 商品目录查询服务
type CatalogQueryService struct {
	repo domain.ProductRepository
}

// NewCatalogQueryService 创建商品目录查询服务实例
func NewCatalogQueryService(repo domain.ProductRepository) *CatalogQueryService {
	return &CatalogQueryService{repo: repo}
}

// GetProductByID 根据ID获取商品信息
func (s *CatalogQueryService) GetProductByID(ctx context.Context, q GetProductByIDQuery) (ProductDTO, error) {
	p, err := s.repo.GetByID(ctx, q.ProductID)
	if err != nil {
		return ProductDTO{}, err
	}
	return toProductDTO(p), nil
}

// ListProducts 列出商品
func (s *CatalogQueryService) ListProducts(ctx context.Context, q ListProductsQuery) (ProductListDTO, error) {
	page := utils.NewPagination(q.Page, q.PageSize, 0)
	products, total, err := s.repo.List(ctx, domain.ProductFilter{
		CategoryID:    q.CategoryID,
		AvailableOnly: q.AvailableOnly,
		Offset:        page.Offset(),
		Limit:         page.Limit(),
	})
	if err != nil {
		return ProductListDTO{}, err
	}

	items := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		items = append(items, toProductDTO(p))
	}
	return ProductListDTO{Items: items, Pagination: page.WithTotal(total)}, nil
}
