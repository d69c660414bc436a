package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
)

// ListOrders returns orders, newest first. An empty status lists all.
func (c *Client) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {string(status)}}
	}
	return getList[models.Order](ctx, c, "orders/", q)
}

// CreateOrder creates an empty pending order.
func (c *Client) CreateOrder(ctx context.Context) (*models.Order, error) {
	return create(ctx, c, "orders/", models.Order{Status: models.OrderPending})
}

func (c *Client) CreateOrderItem(ctx context.Context, orderID, productID int64, quantity int) (*models.OrderItem, error) {
	return create(ctx, c, "order-items/", models.OrderItem{Order: orderID, Product: productID, Quantity: quantity})
}

// CancelOrder cancels an order; the backend puts the stock back.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return c.orderAction(ctx, orderID, "cancel")
}

func (c *Client) CompleteOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return c.orderAction(ctx, orderID, "complete")
}

func (c *Client) orderAction(ctx context.Context, orderID int64, action string) (*models.Order, error) {
	path := fmt.Sprintf("orders/%d/%s/", orderID, action)
	data, err := c.do(ctx, request{method: http.MethodPost, path: path, body: struct{}{}})
	if err != nil {
		return nil, err
	}
	var o models.Order
	if err := decodeJSON(data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
