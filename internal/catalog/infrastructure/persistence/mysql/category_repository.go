package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"gorm.io/gorm"
)

// CategoryModel 分类数据库模型
type CategoryModel struct {
	ID          string  `gorm:"column:id;primaryKey;type:varchar(36)"`
	Name        string  `gorm:"column:name;type:varchar(100);not null"`
	Description string  `gorm:"column:description;type:varchar(500)"`
	ImageURL    string  `gorm:"column:image_url;type:varchar(512)"`
	ParentID    *string `gorm:"column:parent_id;type:varchar(36);index"`
	IsActive    bool    `gorm:"column:is_active;not null"`
	Version     int64   `gorm:"column:version;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (CategoryModel) TableName() string { return "product_categories" }

// CategoryMySQLRepository 分类仓储实现
type CategoryMySQLRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) domain.CategoryRepository {
	return &CategoryMySQLRepository{db: db}
}

func (r *CategoryMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *CategoryMySQLRepository) Save(ctx context.Context, c *domain.Category) error {
	db := r.getDB(ctx)
	m := toCategoryModel(c)

	if c.Version == 0 {
		m.Version = 1
		if err := db.Create(m).Error; err != nil {
			return fmt.Errorf("%w: failed to create category: %w", common.ErrPersistenceFailure, err)
		}
		c.Version = 1
		return nil
	}

	res := db.Model(&CategoryModel{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]any{
			"name":        m.Name,
			"description": m.Description,
			"image_url":   m.ImageURL,
			"is_active":   m.IsActive,
			"version":     c.Version + 1,
			"updated_at":  m.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: failed to update category: %w", common.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: category %s was modified concurrently", common.ErrConcurrencyConflict, c.ID)
	}
	c.Version++
	return nil
}

func (r *CategoryMySQLRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	var m CategoryModel
	if err := r.getDB(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound("category", id)
		}
		return nil, fmt.Errorf("%w: failed to load category: %w", common.ErrPersistenceFailure, err)
	}
	return toCategory(&m), nil
}

func (r *CategoryMySQLRepository) List(ctx context.Context, filter domain.CategoryFilter) ([]*domain.Category, error) {
	q := r.getDB(ctx).Model(&CategoryModel{})
	if filter.ParentID != "" {
		q = q.Where("parent_id = ?", filter.ParentID)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var models []CategoryModel
	if err := q.Order("name, id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list categories: %w", common.ErrPersistenceFailure, err)
	}
	out := make([]*domain.Category, 0, len(models))
	for i := range models {
		out = append(out, toCategory(&models[i]))
	}
	return out, nil
}

func (r *CategoryMySQLRepository) CountChildren(ctx context.Context, id string) (int64, error) {
	var n int64
	if err := r.getDB(ctx).Model(&CategoryModel{}).Where("parent_id = ?", id).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: failed to count child categories: %w", common.ErrPersistenceFailure, err)
	}
	return n, nil
}

func (r *CategoryMySQLRepository) Delete(ctx context.Context, id string) error {
	res := r.getDB(ctx).Where("id = ?", id).Delete(&CategoryModel{})
	if res.Error != nil {
		return fmt.Errorf("%w: failed to delete category: %w", common.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("category", id)
	}
	return nil
}

func toCategoryModel(c *domain.Category) *CategoryModel {
	return &CategoryModel{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		ParentID:    c.ParentID,
		IsActive:    c.IsActive,
		Version:     c.Version,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toCategory(m *CategoryModel) *domain.Category {
	return &domain.Category{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		ParentID:    m.ParentID,
		IsActive:    m.IsActive,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
