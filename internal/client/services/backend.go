package services

import (
	"context"

	"github.com/dmitrijs2005/stockkeeper/internal/client/api"
	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
)

// AuthAPI is the part of the HTTP client AuthService needs.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, username, email, password string) (*models.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	RefreshAccessToken(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
}

type InventoryAPI interface {
	ListProducts(ctx context.Context, f api.ProductFilter) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	CreateCategory(ctx context.Context, in models.Category) (*models.Category, error)
	CreateSupplier(ctx context.Context, in models.Supplier) (*models.Supplier, error)
	CreateProduct(ctx context.Context, in models.Product) (*models.Product, error)
	UpdateStock(ctx context.Context, productID int64, stock int) (*models.Product, error)
}

type OrderAPI interface {
	ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	CreateOrder(ctx context.Context) (*models.Order, error)
	CreateOrderItem(ctx context.Context, orderID, productID int64, quantity int) (*models.OrderItem, error)
	CancelOrder(ctx context.Context, orderID int64) (*models.Order, error)
	CompleteOrder(ctx context.Context, orderID int64) (*models.Order, error)
}

var (
	_ AuthAPI      = (*api.Client)(nil)
	_ InventoryAPI = (*api.Client)(nil)
	_ OrderAPI     = (*api.Client)(nil)
)
