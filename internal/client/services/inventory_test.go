package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/stockkeeper/internal/client/api"
	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateStock_NegativeRejectedLocally(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	before := len(h.backend.Requests())

	_, err := h.inventory.UpdateStock(context.Background(), 1, -1)
	require.ErrorIs(t, err, ErrInvalidStock)
	assert.Contains(t, Describe(err, "Failed to update stock"), "non-negative")
	assert.Len(t, h.backend.Requests(), before)
}

func TestUpdateStock(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	cat := h.backend.AddCategory("Misc")
	p := h.backend.AddProduct(models.Product{Name: "Bolt", SKU: "B-1", Price: decimal.NewFromInt(1), CurrentStock: 1, Category: cat.ID})

	got, err := h.inventory.UpdateStock(context.Background(), p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStock)

	reqs := h.backend.RequestsTo(http.MethodPatch, "products/"+itoa(p.ID)+"/update_stock/")
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"current_stock":0}`, reqs[0].Body)
}

func TestParseStock(t *testing.T) {
	n, err := ParseStock(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = ParseStock("0")
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, in := range []string{"-1", "abc", "", "1.5"} {
		_, err := ParseStock(in)
		assert.ErrorIs(t, err, ErrInvalidStock, in)
	}
}

func TestCatalogue(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	cat, err := h.inventory.AddCategory(ctx, "  Tools ")
	require.NoError(t, err)
	assert.Equal(t, "Tools", cat.Name)

	_, err = h.inventory.AddCategory(ctx, "")
	assert.Equal(t, "This field may not be blank.", Describe(err, "Failed to create category", "cname"))

	sup, err := h.inventory.AddSupplier(ctx, models.Supplier{Name: "Acme", Email: "a@acme.test"})
	require.NoError(t, err)

	_, err = h.inventory.AddSupplier(ctx, models.Supplier{Name: "Bad", Email: "nope"})
	assert.Equal(t, "Enter a valid email address.", Describe(err, "Failed to create supplier", "name", "email"))

	p, err := h.inventory.AddProduct(ctx, models.Product{
		Name: "Hammer", SKU: "HM-1", Price: decimal.RequireFromString("9.99"), CurrentStock: 2,
		Category: cat.ID, Supplier: &sup.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Tools", p.CategoryName)

	products, err := h.inventory.Products(ctx, api.ProductFilter{Search: "ham"})
	require.NoError(t, err)
	require.Len(t, products, 1)

	cats, err := h.inventory.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	sups, err := h.inventory.Suppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, sups, 1)
}

func TestSummary(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed()
	h.login(t)
	ctx := context.Background()

	_, err := h.client.CreateOrder(ctx)
	require.NoError(t, err)

	sum, err := h.inventory.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Products)
	assert.Equal(t, 2, sum.Categories)
	assert.Equal(t, 1, sum.Suppliers)
	assert.Equal(t, 29, sum.UnitsInStock)
	// 25*19.99 + 4*49.50 + 0*7.25
	assert.Equal(t, "697.75", sum.InventoryValue.StringFixed(2))
	assert.Equal(t, 1, sum.OutOfStock)
	require.Len(t, sum.LowStock, 2)
	assert.Equal(t, 1, sum.PendingOrders)
}

func TestSummary_ExpiredTokenRecovers(t *testing.T) {
	h := newHarness(t)
	h.backend.Seed()
	h.login(t)
	h.backend.ExpireAccessTokens()

	_, err := h.inventory.Summary(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, h.backend.RefreshCalls(), 4)
	assert.GreaterOrEqual(t, h.backend.RefreshCalls(), 1)
	assert.True(t, h.auth.IsAuthenticated())
}

func TestSummary_ErrorPropagates(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.FailNext(http.MethodGet, "suppliers/", 500, `{"detail":"db down"}`)

	_, err := h.inventory.Summary(context.Background())
	require.Error(t, err)
	assert.Equal(t, "db down", Describe(err, "Failed to load dashboard"))
}

func TestNewInventoryService_DefaultThreshold(t *testing.T) {
	s := NewInventoryService(nil, -3).(*inventoryService)
	assert.Equal(t, DefaultLowStockThreshold, s.lowStockThreshold)
}
