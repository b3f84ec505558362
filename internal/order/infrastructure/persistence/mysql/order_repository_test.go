package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/db/dbtest"
)

func newOrder(t *testing.T, customerID string, billing bool) *domain.Order {
	t.Helper()
	addr, err := domain.NewAddress("1 Main St", "Springfield", "IL", "62701", "US")
	require.NoError(t, err)
	var b *domain.Address
	if billing {
		b = &domain.Address{Street: "9 Side Rd", City: "Shelbyville", ZipCode: "62565", Country: "US"}
	}
	o, err := domain.NewOrder(customerID, "USD", addr, b, "leave at door")
	require.NoError(t, err)
	for _, line := range []struct {
		price string
		qty   int
	}{{"10", 2}, {"5", 1}} {
		item, err := domain.NewOrderItem("p-"+line.price, "Item "+line.price, common.MustMoney(line.price, "USD"), line.qty)
		require.NoError(t, err)
		require.NoError(t, o.AddItem(item))
	}
	return o
}

func TestOrderRepository_RoundTrip(t *testing.T) {
	repo := NewOrderRepository(dbtest.Open(t, AutoMigrate))
	ctx := context.Background()

	o := newOrder(t, "cust-1", true)
	require.NoError(t, repo.Save(ctx, o))
	assert.Equal(t, int64(1), o.Version)

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Item 10", got.Items[0].ProductName)
	assert.True(t, got.Subtotal.Equal(common.MustMoney("25", "USD")))
	assert.Equal(t, o.ShippingAddress, got.ShippingAddress)
	require.NotNil(t, got.BillingAddress)
	assert.Equal(t, "Shelbyville", got.BillingAddress.City)
	assert.Equal(t, common.PaymentStatusPending, got.PaymentStatus)

	require.NoError(t, got.RemoveItem(got.Items[1].ID))
	require.NoError(t, got.MarkAsProcessing(ctx))
	require.NoError(t, repo.Save(ctx, got))

	again, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, again.Items, 1)
	assert.Equal(t, domain.OrderStatusProcessing, again.Status)
	assert.True(t, again.Total.Equal(common.MustMoney("20", "USD")))
	assert.Equal(t, int64(2), again.Version)

	require.NoError(t, again.MarkAsShipped(ctx))
}

func TestOrderRepository_KeepsThreeDecimalAmounts(t *testing.T) {
	repo := NewOrderRepository(dbtest.Open(t, AutoMigrate))
	ctx := context.Background()

	addr, err := domain.NewAddress("Gulf Rd", "Kuwait City", "", "15000", "KW")
	require.NoError(t, err)
	o, err := domain.NewOrder("cust-kw", "KWD", addr, nil, "")
	require.NoError(t, err)
	item, err := domain.NewOrderItem("p-1", "Dates", common.MustMoney("1.125", "KWD"), 3)
	require.NoError(t, err)
	require.NoError(t, o.AddItem(item))
	require.NoError(t, o.SetTax(common.MustMoney("0.169", "KWD")))
	require.NoError(t, repo.Save(ctx, o))

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.Items[0].UnitPrice.Equal(common.MustMoney("1.125", "KWD")))
	assert.True(t, got.Subtotal.Equal(common.MustMoney("3.375", "KWD")))
	assert.True(t, got.Total.Equal(common.MustMoney("3.544", "KWD")))
}

func TestOrderRepository_VersionConflict(t *testing.T) {
	repo := NewOrderRepository(dbtest.Open(t, AutoMigrate))
	ctx := context.Background()
	o := newOrder(t, "cust-1", false)
	require.NoError(t, repo.Save(ctx, o))

	a, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, a.BillingAddress)

	a.ApplyPaymentStatus(common.PaymentStatusCompleted)
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, b.Cancel(ctx))
	assert.ErrorIs(t, repo.Save(ctx, b), common.ErrConcurrencyConflict)
}

func TestOrderRepository_ListByCustomer(t *testing.T) {
	repo := NewOrderRepository(dbtest.Open(t, AutoMigrate))
	ctx := context.Background()
	for range 3 {
		require.NoError(t, repo.Save(ctx, newOrder(t, "cust-1", false)))
	}
	require.NoError(t, repo.Save(ctx, newOrder(t, "cust-2", false)))

	orders, total, err := repo.ListByCustomer(ctx, "cust-1", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, orders, 2)
	assert.Len(t, orders[0].Items, 2)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
