package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
)

// ProductFilter narrows ListProducts. Zero fields are not sent.
type ProductFilter struct {
	Search     string
	CategoryID int64
	SupplierID int64
	// StockBelow lists products with current_stock < StockBelow when > 0.
	StockBelow int
	// Ordering is a backend field name, "-" prefixed for descending.
	Ordering string
}

func (f ProductFilter) values() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.CategoryID > 0 {
		q.Set("category", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.SupplierID > 0 {
		q.Set("supplier", strconv.FormatInt(f.SupplierID, 10))
	}
	if f.StockBelow > 0 {
		q.Set("stock_lt", strconv.Itoa(f.StockBelow))
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}
	return q
}

func (c *Client) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	return getList[models.Product](ctx, c, "products/", f.values())
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	return getList[models.Category](ctx, c, "categories/", nil)
}

func (c *Client) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	return getList[models.Supplier](ctx, c, "suppliers/", nil)
}

func (c *Client) CreateCategory(ctx context.Context, in models.Category) (*models.Category, error) {
	return create(ctx, c, "categories/", in)
}

func (c *Client) CreateSupplier(ctx context.Context, in models.Supplier) (*models.Supplier, error) {
	return create(ctx, c, "suppliers/", in)
}

func (c *Client) CreateProduct(ctx context.Context, in models.Product) (*models.Product, error) {
	return create(ctx, c, "products/", in)
}

func (c *Client) UpdateStock(ctx context.Context, productID int64, stock int) (*models.Product, error) {
	path := fmt.Sprintf("products/%d/update_stock/", productID)
	data, err := c.do(ctx, request{method: http.MethodPatch, path: path, body: models.StockUpdate{CurrentStock: stock}})
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := decodeJSON(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func create[T any](ctx context.Context, c *Client, path string, in T) (*T, error) {
	data, err := c.do(ctx, request{method: http.MethodPost, path: path, body: in})
	if err != nil {
		return nil, err
	}
	var out T
	if err := decodeJSON(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
