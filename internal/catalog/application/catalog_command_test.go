package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/pipeline"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/db/dbtest"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/outbox"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*CatalogApplicationService, *gorm.DB) {
	t.Helper()
	gdb := dbtest.Open(t, mysql.AutoMigrate, outbox.AutoMigrate)
	log := logger.Discard()
	p := pipeline.New(pipeline.Options{Logger: log, Transactor: db.NewUnitOfWork(gdb)})
	pub := outbox.NewManager(gdb, outbox.LogSender{Log: log}, log)
	return NewCatalogApplicationService(p, mysql.NewProductRepository(gdb), mysql.NewCategoryRepository(gdb), pub, log, domain.DefaultLowStockThreshold), gdb
}

func createCmd(sku string, stock int) CreateProductCommand {
	return CreateProductCommand{
		Name:     "Widget " + sku,
		SKU:      sku,
		Price:    decimal.RequireFromString("10.00"),
		Currency: "USD",
		Stock:    stock,
	}
}

func topics(t *testing.T, gdb *gorm.DB) []string {
	t.Helper()
	var out []string
	require.NoError(t, gdb.Model(&outbox.Message{}).Order("id").Pluck("topic", &out).Error)
	return out
}

func TestCreateProduct_PublishesAndDefaultsThreshold(t *testing.T) {
	svc, gdb := setup(t)
	dto, err := svc.CreateProduct(context.Background(), createCmd("W-1", 50))
	require.NoError(t, err)

	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "10.00", dto.Price)
	assert.Equal(t, domain.DefaultLowStockThreshold, dto.LowStockThreshold)
	assert.Equal(t, string(domain.StockStatusInStock), dto.Status)
	assert.Equal(t, []string{domain.TopicProductCreated}, topics(t, gdb))
}

func TestCreateProduct_ValidationAndDuplicateSKU(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	bad := createCmd("", -1)
	bad.Currency = "usd"
	_, err := svc.CreateProduct(ctx, bad)
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 3)

	_, err = svc.CreateProduct(ctx, createCmd("W-2", 1))
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, createCmd("W-2", 1))
	assert.ErrorIs(t, err, common.ErrValidationFailed)
}

func TestReduceProductStock_LowStockAndInsufficient(t *testing.T) {
	svc, gdb := setup(t)
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, createCmd("W-3", 12))
	require.NoError(t, err)

	dto, err := svc.ReduceProductStock(ctx, ReduceProductStockCommand{ProductID: p.ID, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 7, dto.Stock)
	assert.Equal(t, string(domain.StockStatusLowStock), dto.Status)
	assert.Equal(t, []string{
		domain.TopicProductCreated,
		domain.TopicProductLowStock,
		domain.TopicProductStockChanged,
	}, topics(t, gdb))

	_, err = svc.ReduceProductStock(ctx, ReduceProductStockCommand{ProductID: p.ID, Quantity: 8})
	assert.ErrorIs(t, err, common.ErrInsufficientStock)

	got, err := svc.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)
	assert.Len(t, topics(t, gdb), 3)
}

func TestUpdateProductStatus_ManualStatusSurvivesRestock(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, createCmd("W-4", 20))
	require.NoError(t, err)

	_, err = svc.UpdateProductStatus(ctx, UpdateProductStatusCommand{ProductID: p.ID, Status: "DISCONTINUED"})
	require.NoError(t, err)

	dto, err := svc.AddProductStock(ctx, AddProductStockCommand{ProductID: p.ID, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 25, dto.Stock)
	assert.Equal(t, string(domain.StockStatusDiscontinued), dto.Status)
	assert.False(t, dto.Available)

	_, err = svc.UpdateProductStatus(ctx, UpdateProductStatusCommand{ProductID: p.ID, Status: "IN_STOCK"})
	assert.ErrorIs(t, err, common.ErrValidationFailed)

	dto, err = svc.ResumeStockTracking(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StockStatusInStock), dto.Status)
	assert.True(t, dto.Available)
}

func TestListProducts_PaginatesAndDeleteHides(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	var ids []string
	for _, sku := range []string{"L-1", "L-2", "L-3"} {
		p, err := svc.CreateProduct(ctx, createCmd(sku, 30))
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	list, err := svc.ListProducts(ctx, ListProductsQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, int64(3), list.Pagination.Total)
	assert.Equal(t, int64(2), list.Pagination.Pages)

	require.NoError(t, svc.DeleteProduct(ctx, DeleteProductCommand{ProductID: ids[0]}))
	_, err = svc.GetProductByID(ctx, ids[0])
	assert.ErrorIs(t, err, common.ErrNotFound)
}
