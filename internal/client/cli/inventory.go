package cli

import (
	"context"
	"flag"
	"io"
	"strings"

	"github.com/dmitrijs2005/stockkeeper/internal/client/api"
	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
	"github.com/dmitrijs2005/stockkeeper/internal/client/services"
	"github.com/shopspring/decimal"
)

// Dashboard prints the inventory summary and the products running low.
func (a *App) Dashboard(ctx context.Context) error {
	sum, err := a.inventoryService.Summary(ctx)
	if err != nil {
		return a.fail(err, "Failed to load dashboard")
	}

	t := newTable(a.out, "METRIC", "VALUE")
	t.row("Products", sum.Products)
	t.row("Categories", sum.Categories)
	t.row("Suppliers", sum.Suppliers)
	t.row("Units in stock", sum.UnitsInStock)
	t.row("Inventory value", sum.InventoryValue.StringFixed(2))
	t.row("Out of stock", sum.OutOfStock)
	t.row("Pending orders", sum.PendingOrders)
	t.flush()

	if len(sum.LowStock) > 0 {
		a.printf("\nLow stock:\n")
		a.printProducts(sum.LowStock)
	}
	return nil
}

// parseProductFilter reads "products" arguments: -c <category id>,
// -s <supplier id>, -low, -sort <field>; the remaining words form the search
// text.
func (a *App) parseProductFilter(args []string) (api.ProductFilter, error) {
	var (
		f   api.ProductFilter
		low bool
	)

	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Int64Var(&f.CategoryID, "c", 0, "category id")
	fs.Int64Var(&f.SupplierID, "s", 0, "supplier id")
	fs.BoolVar(&low, "low", false, "only products below the low stock threshold")
	fs.StringVar(&f.Ordering, "sort", "", "ordering field")

	if err := fs.Parse(args); err != nil {
		return f, err
	}
	f.Search = strings.Join(fs.Args(), " ")
	if low {
		f.StockBelow = a.config.LowStockThreshold
		if f.StockBelow <= 0 {
			f.StockBelow = services.DefaultLowStockThreshold
		}
	}
	return f, nil
}

// Products lists the catalogue and refreshes the product snapshots held in
// the cart.
func (a *App) Products(ctx context.Context, args []string) error {
	f, err := a.parseProductFilter(args)
	if err != nil {
		a.printf("Usage: products [-c category] [-s supplier] [-low] [-sort field] [search]\n")
		return errUsage
	}

	products, err := a.inventoryService.Products(ctx, f)
	if err != nil {
		return a.fail(err, "Failed to load products")
	}

	if err := a.orderService.RefreshProducts(ctx, products); err != nil {
		a.log.Warn(ctx, "cart not refreshed", "error", err)
	}

	if len(products) == 0 {
		a.printf("No products found\n")
		return nil
	}
	a.printProducts(products)
	return nil
}

func (a *App) printProducts(products []models.Product) {
	t := newTable(a.out, "ID", "NAME", "SKU", "PRICE", "STOCK", "CATEGORY", "SUPPLIER")
	for _, p := range products {
		t.row(p.ID, p.Name, p.SKU, p.Price.StringFixed(2), p.CurrentStock, orDash(p.CategoryName), orDash(p.SupplierName))
	}
	t.flush()
}

func (a *App) Categories(ctx context.Context) error {
	cats, err := a.inventoryService.Categories(ctx)
	if err != nil {
		return a.fail(err, "Failed to load categories")
	}
	if len(cats) == 0 {
		a.printf("No categories\n")
		return nil
	}

	t := newTable(a.out, "ID", "NAME")
	for _, c := range cats {
		t.row(c.ID, c.Name)
	}
	t.flush()
	return nil
}

func (a *App) Suppliers(ctx context.Context) error {
	sups, err := a.inventoryService.Suppliers(ctx)
	if err != nil {
		return a.fail(err, "Failed to load suppliers")
	}
	if len(sups) == 0 {
		a.printf("No suppliers\n")
		return nil
	}

	t := newTable(a.out, "ID", "NAME", "PHONE", "EMAIL", "ADDRESS")
	for _, s := range sups {
		t.row(s.ID, s.Name, orDash(s.Phone), orDash(s.Email), orDash(s.Address))
	}
	t.flush()
	return nil
}

func (a *App) AddCategory(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter category name", a.out)
	if err != nil {
		return err
	}

	c, err := a.inventoryService.AddCategory(ctx, name)
	if err != nil {
		return a.fail(err, "Failed to add category", "cname")
	}

	a.printf("Category #%d %s added\n", c.ID, c.Name)
	return nil
}

func (a *App) AddSupplier(ctx context.Context) error {
	var s models.Supplier

	prompts := []struct {
		text string
		dst  *string
	}{
		{"Enter supplier name", &s.Name},
		{"Enter phone", &s.Phone},
		{"Enter email", &s.Email},
		{"Enter address (optional)", &s.Address},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.text, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	created, err := a.inventoryService.AddSupplier(ctx, s)
	if err != nil {
		return a.fail(err, "Failed to add supplier", "name", "phone", "email")
	}

	a.printf("Supplier #%d %s added\n", created.ID, created.Name)
	return nil
}

func (a *App) AddProduct(ctx context.Context) error {
	var p models.Product

	name, err := getSimpleText(a.reader, "Enter product name", a.out)
	if err != nil {
		return err
	}
	p.Name = name

	if p.SKU, err = getSimpleText(a.reader, "Enter SKU", a.out); err != nil {
		return err
	}

	price, err := getSimpleText(a.reader, "Enter price", a.out)
	if err != nil {
		return err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil || p.Price.IsNegative() {
		return a.fail(services.ErrInvalidPrice, "")
	}

	stock, err := getSimpleText(a.reader, "Enter initial stock", a.out)
	if err != nil {
		return err
	}
	if p.CurrentStock, err = services.ParseStock(stock); err != nil {
		return a.fail(err, "")
	}

	category, err := getSimpleText(a.reader, "Enter category id", a.out)
	if err != nil {
		return err
	}
	if p.Category, err = parseID(category); err != nil {
		return a.fail(err, "")
	}

	supplier, err := getSimpleText(a.reader, "Enter supplier id (optional)", a.out)
	if err != nil {
		return err
	}
	supplierID, err := parseOptionalID(supplier)
	if err != nil {
		return a.fail(err, "")
	}
	if supplierID > 0 {
		p.Supplier = &supplierID
	}

	created, err := a.inventoryService.AddProduct(ctx, p)
	if err != nil {
		return a.fail(err, "Failed to add product", "name", "sku", "price", "current_stock", "category", "supplier")
	}

	a.printf("Product #%d %s added\n", created.ID, created)
	return nil
}

// SetStock sets the absolute stock level: setstock <product id> <level>.
func (a *App) SetStock(ctx context.Context, args []string) error {
	if len(args) != 2 {
		a.printf("Usage: setstock <product id> <level>\n")
		return errUsage
	}

	id, err := parseID(args[0])
	if err != nil {
		return a.fail(err, "")
	}
	level, err := services.ParseStock(args[1])
	if err != nil {
		return a.fail(err, "")
	}

	p, err := a.inventoryService.UpdateStock(ctx, id, level)
	if err != nil {
		return a.fail(err, "Failed to update stock", "current_stock")
	}

	a.printf("%s stock set to %d\n", p, p.CurrentStock)
	return nil
}
