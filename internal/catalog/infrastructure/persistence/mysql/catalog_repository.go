// Package mysql 商品目录的 GORM 仓储实现
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"gorm.io/gorm"
)

// ProductModel 商品数据库模型
type ProductModel struct {
	ID                string          `gorm:"column:id;primaryKey;type:varchar(36)"`
	Name              string          `gorm:"column:name;type:varchar(200);not null"`
	Description       string          `gorm:"column:description;type:text"`
	CategoryID        string          `gorm:"column:category_id;type:varchar(36);index"`
	SKU               string          `gorm:"column:sku;type:varchar(64);uniqueIndex;not null"`
	ImageURL          string          `gorm:"column:image_url;type:varchar(512)"`
	PriceAmount       decimal.Decimal `gorm:"column:price_amount;type:decimal(20,4);not null"`
	PriceCurrency     string          `gorm:"column:price_currency;type:char(3);not null"`
	Stock             int             `gorm:"column:stock;not null;default:0"`
	Status            string          `gorm:"column:status;type:varchar(20);not null;index"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold;not null"`
	Version           int64           `gorm:"column:version;not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (ProductModel) TableName() string {
	return "products"
}

// AutoMigrate 迁移商品与分类表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ProductModel{}, &CategoryModel{})
}

// ProductMySQLRepository 商品仓储实现
type ProductMySQLRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &ProductMySQLRepository{db: db}
}

func (r *ProductMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *ProductMySQLRepository) Save(ctx context.Context, p *domain.Product) error {
	db := r.getDB(ctx)
	m := toProductModel(p)

	if p.Version == 0 {
		m.Version = 1
		if err := db.Create(m).Error; err != nil {
			return fmt.Errorf("%w: failed to create product: %w", common.ErrPersistenceFailure, err)
		}
		p.Version = 1
		return nil
	}

	res := db.Model(&ProductModel{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]any{
			"name":                m.Name,
			"description":         m.Description,
			"category_id":         m.CategoryID,
			"sku":                 m.SKU,
			"image_url":           m.ImageURL,
			"price_amount":        m.PriceAmount,
			"price_currency":      m.PriceCurrency,
			"stock":               m.Stock,
			"status":              m.Status,
			"low_stock_threshold": m.LowStockThreshold,
			"version":             p.Version + 1,
			"updated_at":          m.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: failed to update product: %w", common.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s was modified concurrently", common.ErrConcurrencyConflict, p.ID)
	}
	p.Version++
	return nil
}

func (r *ProductMySQLRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.first(ctx, "product", id, "id = ?", id)
}

func (r *ProductMySQLRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return r.first(ctx, "product sku", sku, "sku = ?", sku)
}

func (r *ProductMySQLRepository) first(ctx context.Context, entity, key string, query string, args ...any) (*domain.Product, error) {
	var m ProductModel
	if err := r.getDB(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound(entity, key)
		}
		return nil, fmt.Errorf("%w: failed to load %s: %w", common.ErrPersistenceFailure, entity, err)
	}
	return toProduct(&m), nil
}

func (r *ProductMySQLRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error) {
	q := r.getDB(ctx).Model(&ProductModel{})
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.AvailableOnly {
		q = q.Where("status IN ?", []string{
			string(domain.StockStatusInStock),
			string(domain.StockStatusLowStock),
			string(domain.StockStatusPreorder),
			string(domain.StockStatusBackorder),
		})
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count products: %w", common.ErrPersistenceFailure, err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	var models []ProductModel
	if err := q.Order("created_at DESC, id").Offset(filter.Offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to list products: %w", common.ErrPersistenceFailure, err)
	}

	products := make([]*domain.Product, 0, len(models))
	for i := range models {
		products = append(products, toProduct(&models[i]))
	}
	return products, total, nil
}

func (r *ProductMySQLRepository) Delete(ctx context.Context, id string) error {
	res := r.getDB(ctx).Where("id = ?", id).Delete(&ProductModel{})
	if res.Error != nil {
		return fmt.Errorf("%w: failed to delete product: %w", common.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("product", id)
	}
	return nil
}

func toProductModel(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		CategoryID:        p.CategoryID,
		SKU:               p.SKU,
		ImageURL:          p.ImageURL,
		PriceAmount:       p.Price.Amount,
		PriceCurrency:     p.Price.Currency,
		Stock:             p.Stock,
		Status:            string(p.Status),
		LowStockThreshold: p.LowStockThreshold,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:                m.ID,
		Name:              m.Name,
		Description:       m.Description,
		CategoryID:        m.CategoryID,
		SKU:               m.SKU,
		ImageURL:          m.ImageURL,
		Price:             common.Money{Amount: m.PriceAmount, Currency: m.PriceCurrency},
		Stock:             m.Stock,
		Status:            domain.StockStatus(m.Status),
		LowStockThreshold: m.LowStockThreshold,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
