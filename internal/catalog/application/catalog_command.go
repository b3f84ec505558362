package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/common"
)

// CreateProductCommand 创建商品命令
type CreateProductCommand struct {
	Name              string          `validate:"required,max=200"`
	Description       string          `validate:"max=2000"`
	CategoryID        string          `validate:"max=36"`
	SKU               string          `validate:"required,max=64"`
	ImageURL          string          `validate:"omitempty,url,max=512"`
	Price             decimal.Decimal `validate:"gt=0"`
	Currency          string          `validate:"currency"`
	Stock             int             `validate:"gte=0"`
	LowStockThreshold *int            `validate:"omitempty,gte=0"`
}

// UpdateProductCommand 更新商品描述信息
type UpdateProductCommand struct {
	ProductID   string `validate:"required"`
	Name        string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
	CategoryID  string `validate:"max=36"`
	ImageURL    string `validate:"omitempty,url,max=512"`
}

// UpdateProductPriceCommand 调价
type UpdateProductPriceCommand struct {
	ProductID string          `validate:"required"`
	Price     decimal.Decimal `validate:"gt=0"`
	Currency  string          `validate:"currency"`
}

// AddProductStockCommand 补货
type AddProductStockCommand struct {
	ProductID string `validate:"required"`
	Quantity  int    `validate:"gte=0"`
	Reason    string `validate:"max=200"`
}

// UpdateProductStockCommand 盘点后直接设置库存
type UpdateProductStockCommand struct {
	ProductID string `validate:"required"`
	Quantity  int    `validate:"gte=0"`
	Reason    string `validate:"max=200"`
}

// ReduceProductStockCommand 扣减库存
type ReduceProductStockCommand struct {
	ProductID string `validate:"required"`
	Quantity  int    `validate:"gt=0"`
	Reason    string `validate:"max=200"`
}

// UpdateProductStatusCommand 人工设置状态
type UpdateProductStatusCommand struct {
	ProductID string `validate:"required"`
	Status    string `validate:"required,oneof=BACKORDER PREORDER DISCONTINUED UNAVAILABLE"`
}

// ResumeStockTrackingCommand 撤销人工状态
type ResumeStockTrackingCommand struct {
	ProductID string `validate:"required"`
}

// SetLowStockThresholdCommand 调整低库存阈值
type SetLowStockThresholdCommand struct {
	ProductID string `validate:"required"`
	Threshold int    `validate:"gte=0"`
}

// DeleteProductCommand 逻辑删除商品
type DeleteProductCommand struct {
	ProductID string `validate:"required"`
}

// CatalogCommandService 商品目录命令服务
type CatalogCommandService struct {
	repo             domain.ProductRepository
	categories       domain.CategoryRepository
	publisher        common.EventPublisher
	logger           *slog.Logger
	defaultThreshold int
}

// NewCatalogCommandService 创建商品目录命令服务实例
func NewCatalogCommandService(repo domain.ProductRepository, categories domain.CategoryRepository, publisher common.EventPublisher, logger *slog.Logger, defaultThreshold int) *CatalogCommandService {
	if defaultThreshold < 0 {
		defaultThreshold = domain.DefaultLowStockThreshold
	}
	return &CatalogCommandService{
		repo:             repo,
		categories:       categories,
		publisher:        publisher,
		logger:           logger,
		defaultThreshold: defaultThreshold,
	}
}

// CreateProduct 创建商品，SKU 唯一
func (s *CatalogCommandService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (ProductDTO, error) {
	if _, err := s.repo.GetBySKU(ctx, cmd.SKU); err == nil {
		return ProductDTO{}, common.NewValidationError("CreateProductCommand", "SKU "+cmd.SKU+" already exists")
	} else if !errors.Is(err, common.ErrNotFound) {
		return ProductDTO{}, err
	}
	if err := requireActiveCategory(ctx, s.categories, "CreateProductCommand", cmd.CategoryID); err != nil {
		return ProductDTO{}, err
	}

	price, err := common.NewMoney(cmd.Price, cmd.Currency)
	if err != nil {
		return ProductDTO{}, err
	}
	threshold := s.defaultThreshold
	if cmd.LowStockThreshold != nil {
		threshold = *cmd.LowStockThreshold
	}

	product, err := domain.NewProduct(cmd.Name, cmd.Description, cmd.CategoryID, cmd.SKU, price, cmd.Stock, threshold)
	if err != nil {
		return ProductDTO{}, err
	}
	product.ImageURL = cmd.ImageURL

	if err := s.repo.Save(ctx, product); err != nil {
		return ProductDTO{}, err
	}

	common.Notify(ctx, s.publisher, s.logger, domain.TopicProductCreated, product.ID, domain.ProductCreatedEvent{
		ProductID: product.ID,
		Name:      product.Name,
		SKU:       product.SKU,
		Price:     product.Price.Amount.String(),
		Currency:  product.Price.Currency,
		Stock:     product.Stock,
		Timestamp: time.Now(),
	})
	return toProductDTO(product), nil
}

// UpdateProduct 更新描述信息，改挂分类时新分类须已启用
func (s *CatalogCommandService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (ProductDTO, error) {
	return s.mutate(ctx, cmd.ProductID, func(p *domain.Product) error {
		if cmd.CategoryID != p.CategoryID {
			if err := requireActiveCategory(ctx, s.categories, "UpdateProductCommand", cmd.CategoryID); err != nil {
				return err
			}
		}
		p.UpdateDetails(cmd.Name, cmd.Description, cmd.CategoryID, cmd.ImageURL)
		return nil
	})
}

// UpdateProductPrice 调价
func (s *CatalogCommandService) UpdateProductPrice(ctx context.Context, cmd UpdateProductPriceCommand) (ProductDTO, error) {
	price, err := common.NewMoney(cmd.Price, cmd.Currency)
	if err != nil {
		return ProductDTO{}, err
	}
	return s.mutate(ctx, cmd.ProductID, func(p *domain.Product) error {
		return p.UpdatePrice(price)
	})
}

// AddProductStock 补货
func (s *CatalogCommandService) AddProductStock(ctx context.Context, cmd AddProductStockCommand) (ProductDTO, error) {
	return s.mutateStock(ctx, cmd.ProductID, reasonOr(cmd.Reason, "restock"), func(p *domain.Product) error {
		return p.AddStock(cmd.Quantity)
	})
}

// UpdateProductStock 直接设置库存
func (s *CatalogCommandService) UpdateProductStock(ctx context.Context, cmd UpdateProductStockCommand) (ProductDTO, error) {
	return s.mutateStock(ctx, cmd.ProductID, reasonOr(cmd.Reason, "adjustment"), func(p *domain.Product) error {
		return p.UpdateStock(cmd.Quantity)
	})
}

// ReduceProductStock 扣减库存
func (s *CatalogCommandService) ReduceProductStock(ctx context.Context, cmd ReduceProductStockCommand) (ProductDTO, error) {
	return s.mutateStock(ctx, cmd.ProductID, reasonOr(cmd.Reason, "sale"), func(p *domain.Product) error {
		return p.ReduceStock(cmd.Quantity)
	})
}

// UpdateProductStatus 人工设置状态
func (s *CatalogCommandService) UpdateProductStatus(ctx context.Context, cmd UpdateProductStatusCommand) (ProductDTO, error) {
	status, err := domain.ParseStockStatus(cmd.Status)
	if err != nil {
		return ProductDTO{}, err
	}
	return s.mutate(ctx, cmd.ProductID, func(p *domain.Product) error {
		return p.MarkAs(status)
	})
}

// ResumeStockTracking 恢复按库存推导状态
func (s *CatalogCommandService) ResumeStockTracking(ctx context.Context, cmd ResumeStockTrackingCommand) (ProductDTO, error) {
	return s.mutate(ctx, cmd.ProductID, func(p *domain.Product) error {
		p.ResumeStockTracking()
		return nil
	})
}

// SetLowStockThreshold 调整低库存阈值
func (s *CatalogCommandService) SetLowStockThreshold(ctx context.Context, cmd SetLowStockThresholdCommand) (ProductDTO, error) {
	return s.mutate(ctx, cmd.ProductID, func(p *domain.Product) error {
		return p.SetLowStockThreshold(cmd.Threshold)
	})
}

// DeleteProduct 逻辑删除
func (s *CatalogCommandService) DeleteProduct(ctx context.Context, cmd DeleteProductCommand) (struct{}, error) {
	return struct{}{}, s.repo.Delete(ctx, cmd.ProductID)
}

func (s *CatalogCommandService) mutate(ctx context.Context, id string, fn func(*domain.Product) error) (ProductDTO, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ProductDTO{}, err
	}
	if err := fn(product); err != nil {
		return ProductDTO{}, err
	}
	if err := s.repo.Save(ctx, product); err != nil {
		return ProductDTO{}, err
	}
	return toProductDTO(product), nil
}

func (s *CatalogCommandService) mutateStock(ctx context.Context, id, reason string, fn func(*domain.Product) error) (ProductDTO, error) {
	var oldStock int
	dto, err := s.mutate(ctx, id, func(p *domain.Product) error {
		oldStock = p.Stock
		if err := fn(p); err != nil {
			return err
		}
		if p.NeedsRestock() {
			common.Notify(ctx, s.publisher, s.logger, domain.TopicProductLowStock, p.ID, domain.ProductLowStockEvent{
				ProductID: p.ID,
				Name:      p.Name,
				Stock:     p.Stock,
				Threshold: p.LowStockThreshold,
				Timestamp: time.Now(),
			})
		}
		return nil
	})
	if err != nil {
		return ProductDTO{}, err
	}

	common.Notify(ctx, s.publisher, s.logger, domain.TopicProductStockChanged, dto.ID, domain.ProductStockChangedEvent{
		ProductID: dto.ID,
		OldStock:  oldStock,
		NewStock:  dto.Stock,
		Status:    dto.Status,
		Reason:    reason,
		Timestamp: time.Now(),
	})
	return dto, nil
}

func reasonOr(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}
