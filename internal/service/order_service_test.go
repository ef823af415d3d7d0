package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/service/servicetest"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

type orderFixture struct {
	store  *servicetest.Store
	svc    *OrderService
	buyer  models.User
	other  models.User
	cheap  models.ProductInventory
	pricey models.ProductInventory
}

func newOrderFixture() *orderFixture {
	store := servicetest.NewStore()
	widget := store.AddProduct("Widget", store.AddBrand("Acme"), store.AddCategory("Tools", nil))
	cheap, _ := store.AddInventory(widget, "10.00", 5)
	pricey, _ := store.AddInventory(widget, "1000.00", 5)
	return &orderFixture{
		store:  store,
		svc:    NewOrderService(store.Orders(), store.Users(), store.Inventories(), store.Products(), store.Attributes()),
		buyer:  store.AddUser("Buyer@Example.com", "secret1"),
		other:  store.AddUser("other@example.com", "secret1"),
		cheap:  cheap,
		pricey: pricey,
	}
}

func shipping(products ...int) CreateOrderRequest {
	return CreateOrderRequest{
		Products:          products,
		CustomerFirstName: "Ann",
		CustomerLastName:  "Lee",
		CustomerAddress:   "1 Main St",
		CustomerCountry:   "NL",
		CustomerCity:      "Utrecht",
		CustomerZipCode:   "3511",
	}
}

func TestCreateOrder(t *testing.T) {
	f := newOrderFixture()

	created, err := f.svc.CreateOrder(context.Background(), f.buyer.ID, shipping(f.pricey.ID, f.cheap.ID, f.cheap.ID))
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.ElementsMatch(t, []int{f.cheap.ID, f.pricey.ID}, created.Products)
	assert.Equal(t, "buyer@example.com", created.CustomerEmail)
	assert.Equal(t, "Pending", created.Status)
	assert.Equal(t, 5, f.store.StockByInventory(f.cheap.ID).Units, "stock untouched")
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, f.buyer.ID, shipping())
	assert.ErrorIs(t, err, utils.ErrEmptyOrder)
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.svc.CreateOrder(ctx, f.buyer.ID, shipping(f.cheap.ID, 999))
	assert.ErrorIs(t, err, utils.ErrUnknownInventory)
}

func TestOrdersScopedToCustomer(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, f.buyer.ID, shipping(f.cheap.ID))
	require.NoError(t, err)

	got, err := f.svc.GetOrder(ctx, f.buyer.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = f.svc.GetOrder(ctx, f.other.ID, created.ID)
	assert.ErrorIs(t, err, utils.ErrOrderNotFound)

	orders, total, err := f.svc.ListOrders(ctx, f.other.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)
}

func TestListOrdersNewestFirst(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, f.buyer.ID, shipping(f.cheap.ID))
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, f.buyer.ID, shipping(f.pricey.ID))
	require.NoError(t, err)

	orders, total, err := f.svc.ListOrders(ctx, f.buyer.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	require.Len(t, orders[0].Products, 1)
	assert.Equal(t, "Widget", orders[0].Products[0].Product.Name)
	assert.Equal(t, "1000.00", orders[0].Products[0].Price)
}

func TestOrderTotalUsesCurrentPrices(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, f.buyer.ID, shipping(f.cheap.ID, f.pricey.ID))
	require.NoError(t, err)

	got, err := f.svc.GetOrder(ctx, f.buyer.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "1010.00", got.TotalPrice)

	f.store.SetPrice(f.cheap.ID, decimal.RequireFromString("15.25"))
	got, err = f.svc.GetOrder(ctx, f.buyer.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "1015.25", got.TotalPrice)
}

func TestTotalPriceEmpty(t *testing.T) {
	assert.True(t, TotalPrice(nil).IsZero())
}
