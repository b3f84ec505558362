package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/common"
)

func TestCart_AddItemAccumulatesSameProduct(t *testing.T) {
	c := NewCart("cust-1")
	first, err := c.AddItem("p-1", "Pen", common.MustMoney("2.50", "USD"), 2)
	require.NoError(t, err)
	second, err := c.AddItem("p-1", "Pen", common.MustMoney("2.50", "USD"), 3)
	require.NoError(t, err)

	assert.Same(t, first, second)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.True(t, c.Items[0].TotalPrice.Equal(common.MustMoney("12.50", "USD")))
	assert.Equal(t, 5, c.TotalQuantity())
}

func TestCart_RejectsMixedCurrencies(t *testing.T) {
	c := NewCart("cust-1")
	_, err := c.AddItem("p-1", "Pen", common.MustMoney("1", "USD"), 1)
	require.NoError(t, err)
	_, err = c.AddItem("p-2", "Ink", common.MustMoney("1", "EUR"), 1)
	assert.ErrorIs(t, err, common.ErrCurrencyMismatch)
	assert.Len(t, c.Items, 1)
}

func TestCart_UpdateAndRemove(t *testing.T) {
	c := NewCart("cust-1")
	item, err := c.AddItem("p-1", "Pen", common.MustMoney("4", "USD"), 1)
	require.NoError(t, err)
	_, err = c.AddItem("p-2", "Ink", common.MustMoney("6", "USD"), 1)
	require.NoError(t, err)

	require.NoError(t, c.UpdateItemQuantity(item.ID, 3))
	assert.True(t, c.Total().Equal(common.MustMoney("18", "USD")))

	assert.ErrorIs(t, c.UpdateItemQuantity(item.ID, 0), common.ErrValidationFailed)
	assert.ErrorIs(t, c.UpdateItemQuantity("missing", 1), common.ErrNotFound)

	c.RemoveItem("missing")
	assert.Len(t, c.Items, 2)
	c.RemoveItem(item.ID)
	assert.Len(t, c.Items, 1)

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())
}

func TestCart_AddItemRejectsNonPositiveQuantity(t *testing.T) {
	c := NewCart("cust-1")
	_, err := c.AddItem("p-1", "Pen", common.MustMoney("4", "USD"), 0)
	assert.ErrorIs(t, err, common.ErrValidationFailed)
	_, err = c.AddItem("p-1", "Pen", common.MustMoney("4", "USD"), 1)
	require.NoError(t, err)
	_, err = c.AddItem("p-1", "Pen", common.MustMoney("4", "USD"), -1)
	assert.ErrorIs(t, err, common.ErrValidationFailed)
	assert.Equal(t, 1, c.Items[0].Quantity)
}
