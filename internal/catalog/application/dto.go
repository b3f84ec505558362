package application

import (
	"time"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/utils"
)

// ProductDTO 商品视图
type ProductDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	CategoryID        string    `json:"category_id,omitempty"`
	SKU               string    `json:"sku"`
	ImageURL          string    `json:"image_url,omitempty"`
	Price             string    `json:"price"`
	Currency          string    `json:"currency"`
	Stock             int       `json:"stock"`
	Status            string    `json:"status"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	Available         bool      `json:"available"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProductListDTO 商品分页结果
type ProductListDTO struct {
	Items      []ProductDTO      `json:"items"`
	Pagination *utils.Pagination `json:"pagination"`
}

func toProductDTO(p *domain.Product) ProductDTO {
	return ProductDTO{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		CategoryID:        p.CategoryID,
		SKU:               p.SKU,
		ImageURL:          p.ImageURL,
		Price:             p.Price.Format(),
		Currency:          p.Price.Currency,
		Stock:             p.Stock,
		Status:            string(p.Status),
		LowStockThreshold: p.LowStockThreshold,
		Available:         p.IsAvailableForPurchase(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// CategoryDTO 分类视图
type CategoryDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCategoryDTO(c *domain.Category) CategoryDTO {
	dto := CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.ParentID != nil {
		dto.ParentID = *c.ParentID
	}
	return dto
}
