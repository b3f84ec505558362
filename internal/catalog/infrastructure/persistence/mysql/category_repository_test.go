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

func seedCategory(t *testing.T, repo domain.CategoryRepository, name string, parentID *string) *domain.Category {
	t.Helper()
	c, err := domain.NewCategory(name, "", parentID, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), c))
	return c
}

func TestCategoryRepository_HierarchyAndFilters(t *testing.T) {
	repo := NewCategoryRepository(dbtest.Open(t, AutoMigrate))
	ctx := context.Background()

	root := seedCategory(t, repo, "Electronics", nil)
	seedCategory(t, repo, "Phones", &root.ID)
	laptops := seedCategory(t, repo, "Laptops", &root.ID)
	seedCategory(t, repo, "Books", nil)

	laptops.Deactivate()
	require.NoError(t, repo.Save(ctx, laptops))
	assert.Equal(t, int64(2), laptops.Version)

	children, err := repo.List(ctx, domain.CategoryFilter{ParentID: root.ID})
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Laptops", children[0].Name)
	assert.Equal(t, root.ID, *children[0].ParentID)

	active, err := repo.List(ctx, domain.CategoryFilter{ParentID: root.ID, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Phones", active[0].Name)

	n, err := repo.CountChildren(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := repo.List(ctx, domain.CategoryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCategoryRepository_VersionConflictAndDelete(t *testing.T) {
	repo := NewCategoryRepository(dbtest.Open(t, AutoMigrate))
	ctx := context.Background()
	c := seedCategory(t, repo, "Garden", nil)

	first, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)

	require.NoError(t, first.UpdateDetails("Garden & Outdoor", ""))
	require.NoError(t, repo.Save(ctx, first))
	second.Deactivate()
	assert.ErrorIs(t, repo.Save(ctx, second), common.ErrConcurrencyConflict)

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err = repo.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, c.ID), common.ErrNotFound)
}
