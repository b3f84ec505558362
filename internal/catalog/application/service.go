package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/pipeline"
)

// CatalogApplicationService 商品目录门面，所有调用经由管道分发
type CatalogApplicationService struct {
	pipeline        *pipeline.Pipeline
	Command         *CatalogCommandService
	Query           *CatalogQueryService
	CategoryCommand *CategoryCommandService
	CategoryQuery   *CategoryQueryService
}

// NewCatalogApplicationService 创建门面并向管道注册处理器
func NewCatalogApplicationService(p *pipeline.Pipeline, repo domain.ProductRepository, categories domain.CategoryRepository, publisher common.EventPublisher, logger *slog.Logger, defaultThreshold int) *CatalogApplicationService {
	s := &CatalogApplicationService{
		pipeline:        p,
		Command:         NewCatalogCommandService(repo, categories, publisher, logger, defaultThreshold),
		Query:           NewCatalogQueryService(repo),
		CategoryCommand: NewCategoryCommandService(categories, repo),
		CategoryQuery:   NewCategoryQueryService(categories),
	}
	s.register()
	return s
}

func (s *CatalogApplicationService) register() {
	p := s.pipeline
	pipeline.HandleCommand(p, s.Command.CreateProduct)
	pipeline.HandleCommand(p, s.Command.UpdateProduct)
	pipeline.HandleCommand(p, s.Command.UpdateProductPrice)
	pipeline.HandleCommand(p, s.Command.AddProductStock)
	pipeline.HandleCommand(p, s.Command.UpdateProductStock)
	pipeline.HandleCommand(p, s.Command.ReduceProductStock)
	pipeline.HandleCommand(p, s.Command.UpdateProductStatus)
	pipeline.HandleCommand(p, s.Command.ResumeStockTracking)
	pipeline.HandleCommand(p, s.Command.SetLowStockThreshold)
	pipeline.HandleCommand(p, s.Command.DeleteProduct)
	pipeline.HandleQuery(p, s.Query.GetProductByID)
	pipeline.HandleQuery(p, s.Query.ListProducts)

	pipeline.HandleCommand(p, s.CategoryCommand.CreateCategory)
	pipeline.HandleCommand(p, s.CategoryCommand.UpdateCategory)
	pipeline.HandleCommand(p, s.CategoryCommand.ActivateCategory)
	pipeline.HandleCommand(p, s.CategoryCommand.DeactivateCategory)
	pipeline.HandleCommand(p, s.CategoryCommand.DeleteCategory)
	pipeline.HandleQuery(p, s.CategoryQuery.GetCategoryByID)
	pipeline.HandleQuery(p, s.CategoryQuery.ListCategories)
}

func (s *CatalogApplicationService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (ProductDTO, error) {
	return pipeline.Send[ProductDTO](ctx, s.pipeline, cmd)
}

func (s *CatalogApplicationService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (ProductDTO, error) {
	return pipeline.Send[ProductDTO](ctx, s.pipeline, cmd)
}

func (s *CatalogApplicationService) UpdateProductPrice(ctx context.Context, cmd UpdateProductPriceCommand) (ProductDTO, error) {
	return pipeline.Send[ProductDTO](ctx, s.pipeline, cmd)
}

func (s *CatalogApplicationService) AddProductStock(ctx context.Context, cmd AddProductStockCommand) (ProductDTO, error) {
	return pipeline.Send[ProductDTO](ctx, s.pipeline, cmd)
}

func (s *CatalogApplicationService) UpdateProductStock(ctx context.Context, cmd UpdateProductStockCommand) (ProductDTO, error) {
	return pipeline.Send[ProductDTO](ctx, s.pipeline, cmd)
}

func (s *CatalogApplicationService) ReduceProductStock(ctx context.Context, cmd ReduceProductStockCommand) (ProductDTO, error) {
	return pipeline.Send[ProductDTO](ctx, s.pipeline, cmd)
}

func (s *CatalogApplicationService) UpdateProductStatus(ctx context.Context, cmd UpdateProductStatusCommand) (ProductDTO, error) {
	return pipeline.Send[ProductDTO](ctx, s.pipeline, cmd)
}

func (s *CatalogApplicationService) ResumeStockTracking(ctx context.Context, productID string) (ProductDTO, error) {
	return pipeline.Send[ProductDTO](ctx, s.pipeline, ResumeStockTrackingCommand{ProductID: productID})
}

func (s *CatalogApplicationService) SetLowStockThreshold(ctx context.Context, cmd SetLowStockThresholdCommand) (ProductDTO, error) {
	return pipeline.Send[ProductDTO](ctx, s.pipeline, cmd)
}

func (s *CatalogApplicationService) DeleteProduct(ctx context.Context, cmd DeleteProductCommand) error {
	_, err := pipeline.Send[struct{}](ctx, s.pipeline, cmd)
	return err
}

func (s *CatalogApplicationService) GetProductByID(ctx context.Context, id string) (ProductDTO, error) {
	return pipeline.Send[ProductDTO](ctx, s.pipeline, GetProductByIDQuery{ProductID: id})
}

func (s *CatalogApplicationService) ListProducts(ctx context.Context, q ListProductsQuery) (ProductListDTO, error) {
	return pipeline.Send[ProductListDTO](ctx, s.pipeline, q)
}

func (s *CatalogApplicationService) CreateCategory(ctx context.Context, cmd CreateCategoryCommand) (CategoryDTO, error) {
	return pipeline.Send[CategoryDTO](ctx, s.pipeline, cmd)
}

func (s *CatalogApplicationService) UpdateCategory(ctx context.Context, cmd UpdateCategoryCommand) (CategoryDTO, error) {
	return pipeline.Send[CategoryDTO](ctx, s.pipeline, cmd)
}

func (s *CatalogApplicationService) ActivateCategory(ctx context.Context, id string) (CategoryDTO, error) {
	return pipeline.Send[CategoryDTO](ctx, s.pipeline, ActivateCategoryCommand{CategoryID: id})
}

func (s *CatalogApplicationService) DeactivateCategory(ctx context.Context, id string) (CategoryDTO, error) {
	return pipeline.Send[CategoryDTO](ctx, s.pipeline, DeactivateCategoryCommand{CategoryID: id})
}

func (s *CatalogApplicationService) DeleteCategory(ctx context.Context, id string) error {
	_, err := pipeline.Send[struct{}](ctx, s.pipeline, DeleteCategoryCommand{CategoryID: id})
	return err
}

func (s *CatalogApplicationService) GetCategoryByID(ctx context.Context, id string) (CategoryDTO, error) {
	return pipeline.Send[CategoryDTO](ctx, s.pipeline, GetCategoryByIDQuery{CategoryID: id})
}

func (s *CatalogApplicationService) ListCategories(ctx context.Context, q ListCategoriesQuery) ([]CategoryDTO, error) {
	return pipeline.Send[[]CategoryDTO](ctx, s.pipeline, q)
}
