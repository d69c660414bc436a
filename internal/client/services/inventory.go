package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/stockkeeper/internal/client/api"
	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultLowStockThreshold is used when NewInventoryService gets a
// non-positive threshold.
const DefaultLowStockThreshold = 10

// Summary is the dashboard view of the inventory.
type Summary struct {
	Products       int
	Categories     int
	Suppliers      int
	UnitsInStock   int
	InventoryValue decimal.Decimal
	OutOfStock     int
	LowStock       []models.Product
	PendingOrders  int
}

type InventoryService interface {
	Products(ctx context.Context, f api.ProductFilter) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Suppliers(ctx context.Context) ([]models.Supplier, error)
	AddCategory(ctx context.Context, name string) (*models.Category, error)
	AddSupplier(ctx context.Context, s models.Supplier) (*models.Supplier, error)
	AddProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateStock(ctx context.Context, productID int64, stock int) (*models.Product, error)
	Summary(ctx context.Context) (*Summary, error)
}

type inventoryService struct {
	api               InventoryAPI
	lowStockThreshold int
}

func NewInventoryService(api InventoryAPI, lowStockThreshold int) InventoryService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &inventoryService{api: api, lowStockThreshold: lowStockThreshold}
}

func (s *inventoryService) Products(ctx context.Context, f api.ProductFilter) ([]models.Product, error) {
	return s.api.ListProducts(ctx, f)
}

func (s *inventoryService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.api.ListCategories(ctx)
}

func (s *inventoryService) Suppliers(ctx context.Context) ([]models.Supplier, error) {
	return s.api.ListSuppliers(ctx)
}

func (s *inventoryService) AddCategory(ctx context.Context, name string) (*models.Category, error) {
	return s.api.CreateCategory(ctx, models.Category{Name: strings.TrimSpace(name)})
}

func (s *inventoryService) AddSupplier(ctx context.Context, sup models.Supplier) (*models.Supplier, error) {
	return s.api.CreateSupplier(ctx, sup)
}

func (s *inventoryService) AddProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	return s.api.CreateProduct(ctx, p)
}

// UpdateStock sets the absolute stock level. A negative level is rejected
// without contacting the backend.
func (s *inventoryService) UpdateStock(ctx context.Context, productID int64, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	return s.api.UpdateStock(ctx, productID, stock)
}

// ParseStock reads a stock level typed by the user.
func ParseStock(in string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(in))
	if err != nil || n < 0 {
		return 0, ErrInvalidStock
	}
	return n, nil
}

// Summary loads the catalogue and the pending orders concurrently and
// aggregates them.
func (s *inventoryService) Summary(ctx context.Context) (*Summary, error) {
	var (
		products   []models.Product
		categories []models.Category
		suppliers  []models.Supplier
		pending    []models.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = s.api.ListProducts(gctx, api.ProductFilter{})
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.api.ListCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		suppliers, err = s.api.ListSuppliers(gctx)
		return err
	})
	g.Go(func() (err error) {
		pending, err = s.api.ListOrders(gctx, models.OrderPending)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := &Summary{
		Products:       len(products),
		Categories:     len(categories),
		Suppliers:      len(suppliers),
		PendingOrders:  len(pending),
		InventoryValue: decimal.Zero,
	}
	for _, p := range products {
		sum.UnitsInStock += p.CurrentStock
		sum.InventoryValue = sum.InventoryValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.CurrentStock))))
		if p.CurrentStock == 0 {
			sum.OutOfStock++
		}
		if p.CurrentStock < s.lowStockThreshold {
			sum.LowStock = append(sum.LowStock, p)
		}
	}
	sum.InventoryValue = sum.InventoryValue.Round(2)

	return sum, nil
}
