package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/common"
)

func TestCreateCategory_RequiresExistingParent(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	root, err := svc.CreateCategory(ctx, CreateCategoryCommand{Name: "Electronics"})
	require.NoError(t, err)
	assert.True(t, root.IsActive)
	assert.Empty(t, root.ParentID)

	child, err := svc.CreateCategory(ctx, CreateCategoryCommand{Name: "Phones", ParentID: root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, child.ParentID)

	_, err = svc.CreateCategory(ctx, CreateCategoryCommand{Name: "Orphan", ParentID: "missing"})
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreateCategory(ctx, CreateCategoryCommand{})
	require.ErrorAs(t, err, &verr)

	list, err := svc.ListCategories(ctx, ListCategoriesQuery{ParentID: root.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Phones", list[0].Name)
}

func TestCreateProduct_RequiresActiveCategory(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	category, err := svc.CreateCategory(ctx, CreateCategoryCommand{Name: "Keyboards"})
	require.NoError(t, err)

	cmd := createCmd("C-1", 5)
	cmd.CategoryID = "missing"
	_, err = svc.CreateProduct(ctx, cmd)
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)

	cmd.CategoryID = category.ID
	p, err := svc.CreateProduct(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, category.ID, p.CategoryID)

	_, err = svc.DeactivateCategory(ctx, category.ID)
	require.NoError(t, err)

	cmd = createCmd("C-2", 5)
	cmd.CategoryID = category.ID
	_, err = svc.CreateProduct(ctx, cmd)
	require.ErrorAs(t, err, &verr)

	// 停用不影响已挂靠的商品继续更新
	updated, err := svc.UpdateProduct(ctx, UpdateProductCommand{ProductID: p.ID, Name: "Renamed", CategoryID: category.ID})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	other, err := svc.CreateProduct(ctx, createCmd("C-3", 5))
	require.NoError(t, err)
	_, err = svc.UpdateProduct(ctx, UpdateProductCommand{ProductID: other.ID, Name: other.Name, CategoryID: category.ID})
	require.ErrorAs(t, err, &verr)

	reactivated, err := svc.ActivateCategory(ctx, category.ID)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
	_, err = svc.UpdateProduct(ctx, UpdateProductCommand{ProductID: other.ID, Name: other.Name, CategoryID: category.ID})
	require.NoError(t, err)
}

func TestDeleteCategory_RefusesWhileInUse(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	root, err := svc.CreateCategory(ctx, CreateCategoryCommand{Name: "Home"})
	require.NoError(t, err)
	child, err := svc.CreateCategory(ctx, CreateCategoryCommand{Name: "Kitchen", ParentID: root.ID})
	require.NoError(t, err)

	var verr *common.ValidationError
	require.ErrorAs(t, svc.DeleteCategory(ctx, root.ID), &verr)

	cmd := createCmd("K-1", 3)
	cmd.CategoryID = child.ID
	p, err := svc.CreateProduct(ctx, cmd)
	require.NoError(t, err)
	require.ErrorAs(t, svc.DeleteCategory(ctx, child.ID), &verr)

	require.NoError(t, svc.DeleteProduct(ctx, DeleteProductCommand{ProductID: p.ID}))
	require.NoError(t, svc.DeleteCategory(ctx, child.ID))
	require.NoError(t, svc.DeleteCategory(ctx, root.ID))

	_, err = svc.GetCategoryByID(ctx, root.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, root.ID), common.ErrNotFound)
}
