package services

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
	"github.com/dmitrijs2005/stockkeeper/internal/logging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int64, price string, stock int) models.Product {
	return models.Product{ID: id, Name: "p" + strconv.FormatInt(id, 10), SKU: "S", Price: decimal.RequireFromString(price), CurrentStock: stock}
}

func TestCart_AddRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.orders.Add(ctx, product(1, "2.00", 3)))
	require.ErrorIs(t, h.orders.Add(ctx, product(1, "2.00", 3)), ErrAlreadyInCart)
	assert.Equal(t, "Item already in cart", Describe(ErrAlreadyInCart, ""))
	require.ErrorIs(t, h.orders.Add(ctx, product(2, "1.00", 0)), ErrOutOfStock)

	items := h.orders.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Empty(t, h.backend.Requests())
}

func TestCart_SetQuantityClamps(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"2", 2},
		{"5", 5},
		{"9", 5},
		{"0", 1},
		{"-4", 1},
		{"abc", 1},
		{"", 1},
		{" 3 ", 3},
	}

	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.orders.Add(ctx, product(1, "1.00", 5)))

	for _, tt := range tests {
		got, err := h.orders.SetQuantity(ctx, 1, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, tt.want, h.orders.Items()[0].Quantity)
	}

	_, err := h.orders.SetQuantity(ctx, 99, "1")
	require.ErrorIs(t, err, ErrNotInCart)
}

func TestCart_RemoveAndTotal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.orders.Add(ctx, product(1, "19.99", 10)))
	require.NoError(t, h.orders.Add(ctx, product(2, "0.10", 10)))
	require.NoError(t, h.orders.Add(ctx, product(3, "5.00", 10)))
	_, err := h.orders.SetQuantity(ctx, 1, "3")
	require.NoError(t, err)
	_, err = h.orders.SetQuantity(ctx, 2, "3")
	require.NoError(t, err)

	assert.Equal(t, "65.27", h.orders.Total().StringFixed(2))

	require.NoError(t, h.orders.Remove(ctx, 3))
	require.ErrorIs(t, h.orders.Remove(ctx, 3), ErrNotInCart)
	assert.Equal(t, "60.27", h.orders.Total().StringFixed(2))
}

func TestCart_PersistsAcrossLoad(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.orders.Add(ctx, product(4, "1.00", 10)))
	require.NoError(t, h.orders.Add(ctx, product(2, "1.00", 10)))
	_, err := h.orders.SetQuantity(ctx, 2, "7")
	require.NoError(t, err)

	reloaded := NewOrderService(h.client, h.cartRepo, logging.Discard())
	require.NoError(t, reloaded.Load(ctx))

	items := reloaded.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(4), items[0].Product.ID)
	assert.Equal(t, int64(2), items[1].Product.ID)
	assert.Equal(t, 7, items[1].Quantity)
}

func TestCart_ClaimByAnotherAccountDiscardsCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.orders.Claim(ctx, "ann"))
	require.NoError(t, h.orders.Add(ctx, product(1, "1.00", 10)))

	restarted := NewOrderService(h.client, h.cartRepo, logging.Discard())
	require.NoError(t, restarted.Load(ctx))
	require.Len(t, restarted.Items(), 1)

	require.NoError(t, restarted.Claim(ctx, "bob"))
	assert.Empty(t, restarted.Items())
	stored, err := h.cartRepo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCart_ClaimBySameAccountKeepsCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.orders.Claim(ctx, "ann"))
	require.NoError(t, h.orders.Add(ctx, product(1, "1.00", 10)))
	require.NoError(t, h.orders.Claim(ctx, "ann"))

	assert.Len(t, h.orders.Items(), 1)
}

func TestCart_ClaimAdoptsUnownedCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.orders.Add(ctx, product(1, "1.00", 10)))
	require.NoError(t, h.orders.Claim(ctx, "ann"))

	assert.Len(t, h.orders.Items(), 1)
	owner, err := h.cartRepo.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann", owner)
}

func TestCart_Clear(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.orders.Claim(ctx, "ann"))
	require.NoError(t, h.orders.Add(ctx, product(1, "1.00", 10)))
	require.NoError(t, h.orders.Clear(ctx))
	assert.Empty(t, h.orders.Items())

	reloaded := NewOrderService(h.client, h.cartRepo, logging.Discard())
	require.NoError(t, reloaded.Load(ctx))
	assert.Empty(t, reloaded.Items())
	owner, err := h.cartRepo.Owner(ctx)
	require.NoError(t, err)
	assert.Empty(t, owner)
}

func TestCart_RefreshProducts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.orders.Add(ctx, product(1, "1.00", 10)))
	require.NoError(t, h.orders.Add(ctx, product(2, "1.00", 10)))
	_, err := h.orders.SetQuantity(ctx, 1, "8")
	require.NoError(t, err)

	require.NoError(t, h.orders.RefreshProducts(ctx, []models.Product{product(1, "3.00", 2)}))

	items := h.orders.Items()
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "3.00", items[0].Product.Price.StringFixed(2))
	assert.Equal(t, 10, items[1].Product.CurrentStock)
}

func TestCheckout_EmptyCart(t *testing.T) {
	h := newHarness(t)
	_, err := h.orders.Checkout(context.Background())
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, h.backend.Requests())
}

func TestCheckout_CreatesOrderThenItemsInCartOrder(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()
	cat := h.backend.AddCategory("Misc")
	a := h.backend.AddProduct(models.Product{Name: "A", SKU: "A", Price: decimal.RequireFromString("1.50"), CurrentStock: 5, Category: cat.ID})
	b := h.backend.AddProduct(models.Product{Name: "B", SKU: "B", Price: decimal.RequireFromString("2.00"), CurrentStock: 5, Category: cat.ID})

	require.NoError(t, h.orders.Add(ctx, b))
	require.NoError(t, h.orders.Add(ctx, a))
	_, err := h.orders.SetQuantity(ctx, a.ID, "3")
	require.NoError(t, err)
	before := len(h.backend.Requests())

	order, err := h.orders.Checkout(ctx)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)

	reqs := h.backend.Requests()[before:]
	require.Len(t, reqs, 3)
	assert.Equal(t, "orders/", reqs[0].Path)
	assert.JSONEq(t, `{"status":"P"}`, reqs[0].Body)
	id := strconv.FormatInt(order.ID, 10)
	assert.JSONEq(t, `{"order":`+id+`,"product":`+strconv.FormatInt(b.ID, 10)+`,"quantity":1}`, reqs[1].Body)
	assert.JSONEq(t, `{"order":`+id+`,"product":`+strconv.FormatInt(a.ID, 10)+`,"quantity":3}`, reqs[2].Body)

	assert.Empty(t, h.orders.Items())
	stored, err := h.cartRepo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	pa, _ := h.backend.Product(a.ID)
	assert.Equal(t, 2, pa.CurrentStock)
}

func TestCheckout_ItemFailureCancelsOrderAndKeepsCart(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()
	cat := h.backend.AddCategory("Misc")
	a := h.backend.AddProduct(models.Product{Name: "A", SKU: "A", Price: decimal.NewFromInt(1), CurrentStock: 5, Category: cat.ID})
	b := h.backend.AddProduct(models.Product{Name: "B", SKU: "B", Price: decimal.NewFromInt(1), CurrentStock: 5, Category: cat.ID})

	require.NoError(t, h.orders.Add(ctx, a))
	require.NoError(t, h.orders.Add(ctx, b))
	_, err := h.orders.SetQuantity(ctx, a.ID, "2")
	require.NoError(t, err)
	_, err = h.orders.SetQuantity(ctx, b.ID, "4")
	require.NoError(t, err)

	// someone else buys B in the meantime
	_, err = h.client.UpdateStock(ctx, b.ID, 1)
	require.NoError(t, err)

	_, err = h.orders.Checkout(ctx)
	var coErr *CheckoutError
	require.ErrorAs(t, err, &coErr)
	assert.True(t, coErr.Cancelled)
	assert.Equal(t,
		"Insufficient stock. Available: 1, Requested: 4 (order #"+strconv.FormatInt(coErr.OrderID, 10)+" was cancelled)",
		Describe(err, "Checkout failed"))

	orders := h.backend.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, coErr.OrderID, orders[0].ID)
	assert.Equal(t, models.OrderCancelled, orders[0].Status)

	pa, _ := h.backend.Product(a.ID)
	assert.Equal(t, 5, pa.CurrentStock)
	assert.Len(t, h.orders.Items(), 2)
}

func TestCheckout_OrderCreationFails(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()
	require.NoError(t, h.orders.Add(ctx, product(1, "1.00", 1)))
	h.backend.FailNext(http.MethodPost, "orders/", 400, `{"status":["\"Z\" is not a valid choice."]}`)

	_, err := h.orders.Checkout(ctx)
	require.Error(t, err)
	assert.Equal(t, "\"Z\" is not a valid choice.", Describe(err, "Checkout failed", "status"))
	assert.Len(t, h.orders.Items(), 1)
	assert.Empty(t, h.backend.RequestsTo(http.MethodPost, "order-items/"))
}

type failingCancelAPI struct {
	OrderAPI
}

func (failingCancelAPI) CancelOrder(context.Context, int64) (*models.Order, error) {
	return nil, errors.New("boom")
}

func TestCheckout_CancelFailureLeavesOrderPending(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	svc := NewOrderService(failingCancelAPI{OrderAPI: h.client}, h.cartRepo, logging.Discard())
	require.NoError(t, svc.Add(ctx, product(12345, "1.00", 1)))

	_, err := svc.Checkout(ctx)
	var coErr *CheckoutError
	require.ErrorAs(t, err, &coErr)
	assert.False(t, coErr.Cancelled)
	assert.Contains(t, Describe(err, "Checkout failed", "product"), "is left pending")
}

func TestOrders_Admin(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	o1, err := h.client.CreateOrder(ctx)
	require.NoError(t, err)
	o2, err := h.client.CreateOrder(ctx)
	require.NoError(t, err)

	done, err := h.orders.Complete(ctx, o1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, done.Status)

	_, err = h.orders.Cancel(ctx, o1.ID)
	assert.Equal(t, "Cannot cancel a completed order.", Describe(err, "Failed to cancel order"))

	cancelled, err := h.orders.Cancel(ctx, o2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)

	pending, err := h.orders.Orders(ctx, models.OrderPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := h.orders.Orders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
