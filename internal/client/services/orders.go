package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
	"github.com/dmitrijs2005/stockkeeper/internal/client/repositories/cart"
	"github.com/dmitrijs2005/stockkeeper/internal/logging"
	"github.com/shopspring/decimal"
)

// OrderService keeps the cart and manages orders.
//
// The cart lives in memory and is written through to the cart repository on
// every change. Quantities always stay within [1, current stock of the
// product snapshot].
type OrderService interface {
	Load(ctx context.Context) error
	Claim(ctx context.Context, username string) error
	Clear(ctx context.Context) error
	Items() []models.CartItem
	Total() decimal.Decimal
	Add(ctx context.Context, p models.Product) error
	Remove(ctx context.Context, productID int64) error
	SetQuantity(ctx context.Context, productID int64, input string) (int, error)
	RefreshProducts(ctx context.Context, products []models.Product) error
	Checkout(ctx context.Context) (*models.Order, error)

	Orders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	Cancel(ctx context.Context, orderID int64) (*models.Order, error)
	Complete(ctx context.Context, orderID int64) (*models.Order, error)
}

type orderService struct {
	api  OrderAPI
	repo cart.Repository
	log  logging.Logger

	mu    sync.Mutex
	owner string
	items []models.CartItem
}

func NewOrderService(api OrderAPI, repo cart.Repository, log logging.Logger) OrderService {
	return &orderService{api: api, repo: repo, log: log.With("component", "orders")}
}

// Load replaces the in-memory cart with the stored one.
func (s *orderService) Load(ctx context.Context) error {
	items, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	owner, err := s.repo.Owner(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.owner = owner
	return nil
}

// Claim hands the cart to username after a sign-in. A cart that belongs to
// another account is discarded; an unowned cart is adopted.
func (s *orderService) Claim(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.owner != "" && s.owner != username {
		s.log.Info(ctx, "discarding cart of another account", "owner", s.owner, "items", len(s.items))
		if err := s.clearLocked(ctx); err != nil {
			return err
		}
	}
	s.owner = username
	if len(s.items) == 0 {
		return nil
	}
	return s.save(ctx, s.items)
}

// Clear empties the cart and forgets its owner.
func (s *orderService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *orderService) clearLocked(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.items = nil
	s.owner = ""
	return nil
}

func (s *orderService) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Total is the sum of price times quantity, rounded to cents.
func (s *orderService) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cartTotal(s.items)
}

func cartTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total.Round(2)
}

func (s *orderService) indexOf(productID int64) int {
	for i, it := range s.items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

// save persists next and, on success, makes it the current cart.
func (s *orderService) save(ctx context.Context, next []models.CartItem) error {
	if err := s.repo.Save(ctx, s.owner, next); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	s.items = next
	return nil
}

func (s *orderService) Add(ctx context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(p.ID) >= 0 {
		return ErrAlreadyInCart
	}
	if !p.InStock() {
		return ErrOutOfStock
	}

	next := append(append([]models.CartItem{}, s.items...), models.CartItem{Product: p, Quantity: 1})
	return s.save(ctx, next)
}

func (s *orderService) Remove(ctx context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return ErrNotInCart
	}
	next := append(append([]models.CartItem{}, s.items[:i]...), s.items[i+1:]...)
	return s.save(ctx, next)
}

// SetQuantity parses input and stores it as the line's quantity. Input that
// is not a number counts as 1; the result is clamped to [1, stock]. The
// stored quantity is returned.
func (s *orderService) SetQuantity(ctx context.Context, productID int64, input string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return 0, ErrNotInCart
	}

	qty := clampQuantity(input, s.items[i].Product.CurrentStock)
	next := append([]models.CartItem{}, s.items...)
	next[i].Quantity = qty
	if err := s.save(ctx, next); err != nil {
		return 0, err
	}
	return qty, nil
}

func clampQuantity(input string, stock int) int {
	qty, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		qty = 1
	}
	if qty > stock {
		qty = stock
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}

// RefreshProducts updates the product snapshots of cart lines from a fresh
// product list and re-clamps quantities to the new stock. Lines for products
// missing from the list are kept unchanged.
func (s *orderService) RefreshProducts(ctx context.Context, products []models.Product) error {
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return nil
	}
	next := append([]models.CartItem{}, s.items...)
	for i := range next {
		if p, ok := byID[next[i].Product.ID]; ok {
			next[i].Product = p
			next[i].Quantity = clampQuantity(strconv.Itoa(next[i].Quantity), p.CurrentStock)
		}
	}
	return s.save(ctx, next)
}

// Checkout creates a pending order and then its items one by one in cart
// order. The cart is cleared only when every item was created. When an item
// fails the order is cancelled, which returns the already reserved stock,
// and a *CheckoutError is returned.
func (s *orderService) Checkout(ctx context.Context) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return nil, ErrEmptyCart
	}

	order, err := s.api.CreateOrder(ctx)
	if err != nil {
		return nil, err
	}

	for _, it := range s.items {
		item, err := s.api.CreateOrderItem(ctx, order.ID, it.Product.ID, it.Quantity)
		if err != nil {
			s.log.Warn(ctx, "order item failed", "order_id", order.ID, "product_id", it.Product.ID, "error", err)
			return nil, &CheckoutError{OrderID: order.ID, Cancelled: s.cancelQuietly(ctx, order.ID), Err: err}
		}
		order.Items = append(order.Items, *item)
	}

	if err := s.repo.Clear(ctx); err != nil {
		s.log.Warn(ctx, "failed to clear stored cart", "error", err)
	}
	s.items = nil
	s.log.Info(ctx, "order placed", "order_id", order.ID, "items", len(order.Items))

	return order, nil
}

func (s *orderService) cancelQuietly(ctx context.Context, orderID int64) bool {
	if _, err := s.api.CancelOrder(ctx, orderID); err != nil {
		s.log.Warn(ctx, "failed to cancel incomplete order", "order_id", orderID, "error", err)
		return false
	}
	return true
}

func (s *orderService) Orders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return s.api.ListOrders(ctx, status)
}

func (s *orderService) Cancel(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.api.CancelOrder(ctx, orderID)
}

func (s *orderService) Complete(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.api.CompleteOrder(ctx, orderID)
}
