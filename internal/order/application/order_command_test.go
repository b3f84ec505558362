package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	cartmysql "github.com/wyfcoding/ecommerce/internal/cart/infrastructure/persistence/mysql"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/order/infrastructure/persistence/mysql"
	"github.com/wyfcoding/ecommerce/internal/pipeline"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/db/dbtest"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

type fixture struct {
	svc   *OrderApplicationService
	carts cart.CartRepository
}

func setup(t *testing.T) fixture {
	t.Helper()
	gdb := dbtest.Open(t, mysql.AutoMigrate, cartmysql.AutoMigrate)
	log := logger.Discard()
	p := pipeline.New(pipeline.Options{Logger: log, Transactor: db.NewUnitOfWork(gdb)})
	carts := cartmysql.NewCartRepository(gdb)
	return fixture{
		svc:   NewOrderApplicationService(p, mysql.NewOrderRepository(gdb), carts, nil, log),
		carts: carts,
	}
}

func address() AddressInput {
	return AddressInput{Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US"}
}

func line(id, price string, qty int) OrderItemInput {
	return OrderItemInput{
		ProductID:   id,
		ProductName: "Item " + id,
		UnitPrice:   decimal.RequireFromString(price),
		Currency:    "USD",
		Quantity:    qty,
	}
}

func TestCreateOrder_ComputesSubtotal(t *testing.T) {
	f := setup(t)
	o, err := f.svc.CreateOrder(context.Background(), CreateOrderCommand{
		CustomerID:      "cust-1",
		ShippingAddress: address(),
		Items:           []OrderItemInput{line("a", "10", 2), line("b", "5", 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, "25.00", o.Subtotal)
	assert.Equal(t, "25.00", o.Total)
	assert.Equal(t, "PENDING", o.Status)
	assert.Equal(t, "PENDING", o.PaymentStatus)
	assert.Len(t, o.Items, 2)
}

func TestCreateOrder_CollectsEveryViolation(t *testing.T) {
	f := setup(t)
	mixed := line("b", "5", 1)
	mixed.Currency = "EUR"
	_, err := f.svc.CreateOrder(context.Background(), CreateOrderCommand{
		CustomerID:      "cust-1",
		ShippingAddress: AddressInput{Street: "1 Main St", Country: "US"},
		Items:           []OrderItemInput{line("a", "10", 0), mixed},
	})

	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{
		"ShippingAddress.City is required",
		"ShippingAddress.ZipCode is required",
		"Items[0].Quantity must be greater than 0",
		"Items must all use the same currency",
	}, verr.Violations)

	_, err = f.svc.CreateOrder(context.Background(), CreateOrderCommand{CustomerID: "cust-1", ShippingAddress: address()})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Violations, "Items must contain at least 1 item(s)")
}

func TestUpdateOrderStatus_FollowsStateMachine(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o, err := f.svc.CreateOrder(ctx, CreateOrderCommand{
		CustomerID: "cust-1", ShippingAddress: address(), Items: []OrderItemInput{line("a", "3", 1)},
	})
	require.NoError(t, err)

	for _, st := range []string{"PROCESSING", "SHIPPED"} {
		o, err = f.svc.UpdateOrderStatus(ctx, UpdateOrderStatusCommand{OrderID: o.ID, Status: st})
		require.NoError(t, err)
	}
	_, err = f.svc.CancelOrder(ctx, o.ID)
	var terr *common.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "SHIPPED", terr.From)

	_, err = f.svc.AddOrderItem(ctx, AddOrderItemCommand{OrderID: o.ID, Item: line("c", "1", 1)})
	assert.ErrorIs(t, err, common.ErrInvalidStateTransition)

	got, err := f.svc.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", got.Status)
}

func TestOrderItemsAndCharges(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o, err := f.svc.CreateOrder(ctx, CreateOrderCommand{
		CustomerID: "cust-1", ShippingAddress: address(), Items: []OrderItemInput{line("a", "10", 1)},
	})
	require.NoError(t, err)

	o, err = f.svc.AddOrderItem(ctx, AddOrderItemCommand{OrderID: o.ID, Item: line("b", "2.50", 2)})
	require.NoError(t, err)
	assert.Equal(t, "15.00", o.Subtotal)

	o, err = f.svc.SetOrderCharges(ctx, SetOrderChargesCommand{
		OrderID:      o.ID,
		Tax:          decimal.RequireFromString("1.20"),
		ShippingCost: decimal.RequireFromString("4.80"),
	})
	require.NoError(t, err)
	assert.Equal(t, "21.00", o.Total)

	o, err = f.svc.RemoveOrderItem(ctx, RemoveOrderItemCommand{OrderID: o.ID, ItemID: o.Items[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "5.00", o.Subtotal)
	assert.Equal(t, "11.00", o.Total)

	eur := line("c", "1", 1)
	eur.Currency = "EUR"
	_, err = f.svc.AddOrderItem(ctx, AddOrderItemCommand{OrderID: o.ID, Item: eur})
	assert.ErrorIs(t, err, common.ErrCurrencyMismatch)
}

func TestCheckoutCart_BuildsOrderAndEmptiesCart(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c := cart.NewCart("cust-9")
	_, err := c.AddItem("p-1", "Pen", common.MustMoney("2.50", "USD"), 4)
	require.NoError(t, err)
	_, err = c.AddItem("p-2", "Ink", common.MustMoney("6", "USD"), 1)
	require.NoError(t, err)
	require.NoError(t, f.carts.Save(ctx, c))

	o, err := f.svc.CheckoutCart(ctx, CheckoutCartCommand{CustomerID: "cust-9", ShippingAddress: address()})
	require.NoError(t, err)
	assert.Equal(t, "16.00", o.Subtotal)
	assert.Len(t, o.Items, 2)

	after, err := f.carts.GetByCustomerID(ctx, "cust-9")
	require.NoError(t, err)
	assert.True(t, after.IsEmpty())

	_, err = f.svc.CheckoutCart(ctx, CheckoutCartCommand{CustomerID: "cust-9", ShippingAddress: address()})
	assert.ErrorIs(t, err, common.ErrValidationFailed)

	list, err := f.svc.ListOrdersByCustomer(ctx, ListOrdersByCustomerQuery{CustomerID: "cust-9"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Pagination.Total)
}
