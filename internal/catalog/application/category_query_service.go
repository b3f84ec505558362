package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

// GetCategoryByIDQuery 按 ID 查询分类
type GetCategoryByIDQuery struct {
	CategoryID string `validate:"required"`
}

// ListCategoriesQuery 列出分类，ParentID 非空时只列直接子分类
type ListCategoriesQuery struct {
	ParentID   string `validate:"max=36"`
	ActiveOnly bool
}

// CategoryQueryService 分类查询服务
type CategoryQueryService struct {
	repo domain.CategoryRepository
}

func NewCategoryQueryService(repo domain.CategoryRepository) *CategoryQueryService {
	return &CategoryQueryService{repo: repo}
}

func (s *CategoryQueryService) GetCategoryByID(ctx context.Context, q GetCategoryByIDQuery) (CategoryDTO, error) {
	c, err := s.repo.GetByID(ctx, q.CategoryID)
	if err != nil {
		return CategoryDTO{}, err
	}
	return toCategoryDTO(c), nil
}

func (s *CategoryQueryService) ListCategories(ctx context.Context, q ListCategoriesQuery) ([]CategoryDTO, error) {
	categories, err := s.repo.List(ctx, domain.CategoryFilter{ParentID: q.ParentID, ActiveOnly: q.ActiveOnly})
	if err != nil {
		return nil, err
	}
	out := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryDTO(c))
	}
	return out, nil
}
