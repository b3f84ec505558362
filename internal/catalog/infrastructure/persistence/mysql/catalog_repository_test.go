package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/pkg/db/dbtest"
)

func seed(t *testing.T, repo domain.ProductRepository, sku, categoryID string, stock int) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct("Item "+sku, "", categoryID, sku, common.MustMoney("12.50", "USD"), stock, 10)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func TestProductRepository_SaveAndLoad(t *testing.T) {
	repo := NewProductRepository(dbtest.Open(t, AutoMigrate))
	ctx := context.Background()
	p := seed(t, repo, "SKU-1", "books", 40)
	assert.Equal(t, int64(1), p.Version)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", got.SKU)
	assert.True(t, got.Price.Equal(common.MustMoney("12.5", "USD")))
	assert.Equal(t, domain.StockStatusInStock, got.Status)

	require.NoError(t, got.ReduceStock(35))
	require.NoError(t, repo.Save(ctx, got))
	assert.Equal(t, int64(2), got.Version)

	again, err := repo.GetBySKU(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, 5, again.Stock)
	assert.Equal(t, domain.StockStatusLowStock, again.Status)
}

func TestProductRepository_DetectsLostUpdate(t *testing.T) {
	repo := NewProductRepository(dbtest.Open(t, AutoMigrate))
	ctx := context.Background()
	p := seed(t, repo, "SKU-2", "books", 10)

	first, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, first.ReduceStock(6))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.ReduceStock(6))
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, common.ErrConcurrencyConflict)

	stored, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Stock)
}

func TestProductRepository_SoftDelete(t *testing.T) {
	gdb := dbtest.Open(t, AutoMigrate)
	repo := NewProductRepository(gdb)
	ctx := context.Background()
	p := seed(t, repo, "SKU-3", "toys", 1)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err := repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), common.ErrNotFound)

	var raw int64
	require.NoError(t, gdb.Unscoped().Model(&ProductModel{}).Where("id = ?", p.ID).Count(&raw).Error)
	assert.Equal(t, int64(1), raw, "row is tombstoned, not removed")
}

func TestProductRepository_List(t *testing.T) {
	repo := NewProductRepository(dbtest.Open(t, AutoMigrate))
	ctx := context.Background()
	seed(t, repo, "A", "books", 20)
	seed(t, repo, "B", "books", 0)
	seed(t, repo, "C", "toys", 20)

	books, total, err := repo.List(ctx, domain.ProductFilter{CategoryID: "books"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, books, 2)

	available, total, err := repo.List(ctx, domain.ProductFilter{CategoryID: "books", AvailableOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, available, 1)
	assert.Equal(t, "A", available[0].SKU)

	page, total, err := repo.List(ctx, domain.ProductFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)
}
