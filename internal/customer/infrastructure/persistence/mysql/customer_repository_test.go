package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/customer/domain"
	"github.com/wyfcoding/ecommerce/pkg/db/dbtest"
)

func seed(t *testing.T, repo domain.CustomerRepository, email string) *domain.Customer {
	t.Helper()
	c, err := domain.NewCustomer("Ada", "Lovelace", email, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), c))
	return c
}

func TestCustomerRepository_SaveLoadAndConflict(t *testing.T) {
	repo := NewCustomerRepository(dbtest.Open(t, AutoMigrate))
	ctx := context.Background()
	c := seed(t, repo, "ada@example.com")

	got, err := repo.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	first, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)

	first.Deactivate()
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Deactivate()
	assert.ErrorIs(t, repo.Save(ctx, second), common.ErrConcurrencyConflict)
}

func TestCustomerRepository_DeleteReleasesEmail(t *testing.T) {
	repo := NewCustomerRepository(dbtest.Open(t, AutoMigrate))
	ctx := context.Background()
	c := seed(t, repo, "grace@example.com")

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err := repo.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repo.GetByEmail(ctx, "grace@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, c.ID), common.ErrNotFound)

	again := seed(t, repo, "grace@example.com")
	assert.NotEqual(t, c.ID, again.ID)

	list, total, err := repo.List(ctx, domain.CustomerFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}
