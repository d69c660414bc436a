package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"cname"`
}

type Supplier struct {
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
}

// Product is an inventory item. CategoryName and SupplierName are read-only
// on the backend and are omitted when creating a product.
type Product struct {
	ID           int64           `json:"id,omitempty"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Price        decimal.Decimal `json:"price"`
	CurrentStock int             `json:"current_stock"`
	Category     int64           `json:"category"`
	CategoryName string          `json:"category_name,omitempty"`
	Supplier     *int64          `json:"supplier"`
	SupplierName string          `json:"supplier_name,omitempty"`
}

func (p Product) String() string {
	return fmt.Sprintf("%s(%s)", p.Name, p.SKU)
}

// InStock reports whether at least one unit can be ordered.
func (p Product) InStock() bool {
	return p.CurrentStock > 0
}

// StockUpdate is the body of products/{id}/update_stock/.
type StockUpdate struct {
	CurrentStock int `json:"current_stock"`
}
