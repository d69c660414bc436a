package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/stockkeeper/internal/client/api"
	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
)

func (a *App) Cart(ctx context.Context) error {
	items := a.orderService.Items()
	if len(items) == 0 {
		a.printf("Cart is empty\n")
		return nil
	}

	t := newTable(a.out, "ID", "PRODUCT", "PRICE", "QTY", "AVAILABLE", "TOTAL")
	for _, it := range items {
		t.row(it.Product.ID, it.Product.Name, it.Product.Price.StringFixed(2), it.Quantity,
			it.Product.CurrentStock, it.LineTotal().StringFixed(2))
	}
	t.flush()

	a.printf("Total: %s\n", a.orderService.Total().StringFixed(2))
	return nil
}

// AddToCart looks the product up in the current catalogue and adds one unit
// of it: add <product id>.
func (a *App) AddToCart(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.printf("Usage: add <product id>\n")
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return a.fail(err, "")
	}

	products, err := a.inventoryService.Products(ctx, api.ProductFilter{})
	if err != nil {
		return a.fail(err, "Failed to load products")
	}

	var product *models.Product
	for i := range products {
		if products[i].ID == id {
			product = &products[i]
			break
		}
	}
	if product == nil {
		return a.fail(fmt.Errorf("product #%d not found", id), "")
	}

	if err := a.orderService.Add(ctx, *product); err != nil {
		return a.fail(err, "Failed to add to cart")
	}

	a.printf("%s added to cart\n", product.Name)
	return nil
}

func (a *App) RemoveFromCart(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.printf("Usage: remove <product id>\n")
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return a.fail(err, "")
	}

	if err := a.orderService.Remove(ctx, id); err != nil {
		return a.fail(err, "Failed to remove from cart")
	}

	a.printf("Removed from cart\n")
	return nil
}

// SetQuantity changes a cart line: qty <product id> <quantity>. The quantity
// is clamped to what is in stock.
func (a *App) SetQuantity(ctx context.Context, args []string) error {
	if len(args) != 2 {
		a.printf("Usage: qty <product id> <quantity>\n")
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return a.fail(err, "")
	}

	qty, err := a.orderService.SetQuantity(ctx, id, args[1])
	if err != nil {
		return a.fail(err, "Failed to update quantity")
	}

	a.printf("Quantity set to %d\n", qty)
	return nil
}

func (a *App) Checkout(ctx context.Context) error {
	order, err := a.orderService.Checkout(ctx)
	if err != nil {
		return a.fail(err, "Checkout failed", "quantity", "product")
	}

	a.printf("Order #%d placed with %d item(s)\n", order.ID, len(order.Items))
	return nil
}

var orderStatuses = map[string]models.OrderStatus{
	"pending":   models.OrderPending,
	"completed": models.OrderCompleted,
	"cancelled": models.OrderCancelled,
}

// Orders lists orders, optionally filtered: orders [pending|completed|cancelled].
func (a *App) Orders(ctx context.Context, args []string) error {
	var status models.OrderStatus
	if len(args) > 0 {
		s, ok := orderStatuses[strings.ToLower(args[0])]
		if !ok {
			a.printf("Usage: orders [pending|completed|cancelled]\n")
			return errUsage
		}
		status = s
	}

	orders, err := a.orderService.Orders(ctx, status)
	if err != nil {
		return a.fail(err, "Failed to load orders")
	}
	if len(orders) == 0 {
		a.printf("No orders\n")
		return nil
	}

	t := newTable(a.out, "ID", "CREATED", "STATUS", "ITEMS")
	for _, o := range orders {
		created := "-"
		if o.CreatedAt != nil {
			created = o.CreatedAt.Local().Format(time.DateTime)
		}
		t.row(o.ID, created, o.Status, describeItems(o.Items))
	}
	t.flush()
	return nil
}

func describeItems(items []models.OrderItem) string {
	if len(items) == 0 {
		return "-"
	}
	parts := make([]string, len(items))
	for i, it := range items {
		name := it.ProductName
		if name == "" {
			name = fmt.Sprintf("#%d", it.Product)
		}
		parts[i] = fmt.Sprintf("%s x%d", name, it.Quantity)
	}
	return strings.Join(parts, ", ")
}

func (a *App) CancelOrder(ctx context.Context, args []string) error {
	return a.orderAction(ctx, args, "cancel", a.orderService.Cancel)
}

func (a *App) CompleteOrder(ctx context.Context, args []string) error {
	return a.orderAction(ctx, args, "complete", a.orderService.Complete)
}

func (a *App) orderAction(ctx context.Context, args []string, name string,
	fn func(context.Context, int64) (*models.Order, error)) error {
	if len(args) != 1 {
		a.printf("Usage: %s <order id>\n", name)
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return a.fail(err, "")
	}

	order, err := fn(ctx, id)
	if err != nil {
		return a.fail(err, fmt.Sprintf("Failed to %s order", name))
	}

	a.printf("%s\n", order)
	return nil
}
