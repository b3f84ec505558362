package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/common"
)

// CreateCategoryCommand 创建分类命令
type CreateCategoryCommand struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=500"`
	ParentID    string `validate:"max=36"`
	ImageURL    string `validate:"omitempty,url,max=512"`
}

// UpdateCategoryCommand 更新分类
type UpdateCategoryCommand struct {
	CategoryID  string `validate:"required"`
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=500"`
	ImageURL    string `validate:"omitempty,url,max=512"`
}

// ActivateCategoryCommand 启用分类
type ActivateCategoryCommand struct {
	CategoryID string `validate:"required"`
}

// DeactivateCategoryCommand 停用分类
type DeactivateCategoryCommand struct {
	CategoryID string `validate:"required"`
}

// DeleteCategoryCommand 删除分类，仍有子分类或商品时拒绝
type DeleteCategoryCommand struct {
	CategoryID string `validate:"required"`
}

// CategoryCommandService 分类命令服务
type CategoryCommandService struct {
	repo     domain.CategoryRepository
	products domain.ProductRepository
}

// NewCategoryCommandService 创建分类命令服务实例
func NewCategoryCommandService(repo domain.CategoryRepository, products domain.ProductRepository) *CategoryCommandService {
	return &CategoryCommandService{repo: repo, products: products}
}

// CreateCategory 创建分类，父分类必须存在
func (s *CategoryCommandService) CreateCategory(ctx context.Context, cmd CreateCategoryCommand) (CategoryDTO, error) {
	var parentID *string
	if cmd.ParentID != "" {
		if _, err := s.repo.GetByID(ctx, cmd.ParentID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return CategoryDTO{}, common.NewValidationError("CreateCategoryCommand", "parent category "+cmd.ParentID+" does not exist")
			}
			return CategoryDTO{}, err
		}
		parentID = &cmd.ParentID
	}

	category, err := domain.NewCategory(cmd.Name, cmd.Description, parentID, cmd.ImageURL)
	if err != nil {
		return CategoryDTO{}, err
	}
	if err := s.repo.Save(ctx, category); err != nil {
		return CategoryDTO{}, err
	}
	return toCategoryDTO(category), nil
}

func (s *CategoryCommandService) UpdateCategory(ctx context.Context, cmd UpdateCategoryCommand) (CategoryDTO, error) {
	return s.mutate(ctx, cmd.CategoryID, func(c *domain.Category) error {
		if err := c.UpdateDetails(cmd.Name, cmd.Description); err != nil {
			return err
		}
		c.UpdateImage(cmd.ImageURL)
		return nil
	})
}

func (s *CategoryCommandService) ActivateCategory(ctx context.Context, cmd ActivateCategoryCommand) (CategoryDTO, error) {
	return s.mutate(ctx, cmd.CategoryID, func(c *domain.Category) error {
		c.Activate()
		return nil
	})
}

func (s *CategoryCommandService) DeactivateCategory(ctx context.Context, cmd DeactivateCategoryCommand) (CategoryDTO, error) {
	return s.mutate(ctx, cmd.CategoryID, func(c *domain.Category) error {
		c.Deactivate()
		return nil
	})
}

// DeleteCategory 逻辑删除
func (s *CategoryCommandService) DeleteCategory(ctx context.Context, cmd DeleteCategoryCommand) (struct{}, error) {
	if _, err := s.repo.GetByID(ctx, cmd.CategoryID); err != nil {
		return struct{}{}, err
	}
	children, err := s.repo.CountChildren(ctx, cmd.CategoryID)
	if err != nil {
		return struct{}{}, err
	}
	if children > 0 {
		return struct{}{}, common.NewValidationError("DeleteCategoryCommand", fmt.Sprintf("category has %d child categories", children))
	}
	_, total, err := s.products.List(ctx, domain.ProductFilter{CategoryID: cmd.CategoryID, Limit: 1})
	if err != nil {
		return struct{}{}, err
	}
	if total > 0 {
		return struct{}{}, common.NewValidationError("DeleteCategoryCommand", fmt.Sprintf("category is referenced by %d products", total))
	}
	return struct{}{}, s.repo.Delete(ctx, cmd.CategoryID)
}

func (s *CategoryCommandService) mutate(ctx context.Context, id string, fn func(*domain.Category) error) (CategoryDTO, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return CategoryDTO{}, err
	}
	if err := fn(category); err != nil {
		return CategoryDTO{}, err
	}
	if err := s.repo.Save(ctx, category); err != nil {
		return CategoryDTO{}, err
	}
	return toCategoryDTO(category), nil
}

// requireActiveCategory 商品只能挂在存在且启用的分类下，空 ID 表示不分类
func requireActiveCategory(ctx context.Context, repo domain.CategoryRepository, request, id string) error {
	if id == "" {
		return nil
	}
	category, err := repo.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return common.NewValidationError(request, "category "+id+" does not exist")
	}
	if err != nil {
		return err
	}
	if !category.IsActive {
		return common.NewValidationError(request, "category "+id+" is not active")
	}
	return nil
}
