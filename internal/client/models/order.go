package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "P"
	OrderCompleted OrderStatus = "C"
	OrderCancelled OrderStatus = "X"
)

func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "Pending"
	case OrderCompleted:
		return "Completed"
	case OrderCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

type Order struct {
	ID        int64       `json:"id,omitempty"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items,omitempty"`
}

func (o Order) String() string {
	return fmt.Sprintf("Order #%d - %s", o.ID, o.Status)
}

// OrderItem links a product to an order. PriceAtPurchase is set by the
// backend from the product's price at creation time.
type OrderItem struct {
	ID              int64            `json:"id,omitempty"`
	Order           int64            `json:"order"`
	Product         int64            `json:"product"`
	ProductName     string           `json:"product_name,omitempty"`
	Quantity        int              `json:"quantity"`
	PriceAtPurchase *decimal.Decimal `json:"price_at_purchase,omitempty"`
}

// CartItem is one line of the local cart: a snapshot of the product taken
// when it was added, and the requested quantity.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal is price times quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
