package apitest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
	"github.com/dmitrijs2005/stockkeeper/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Prefix is the path the API is mounted under.
const Prefix = "/api/"

// Request is one request as the backend saw it.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
	Body          string
}

type account struct {
	user     models.User
	password string
}

type failure struct {
	status int
	body   string
}

type accessClaims struct {
	Generation int `json:"gen"`
	jwt.RegisteredClaims
}

type Backend struct {
	mu sync.Mutex

	secret     []byte
	accessTTL  time.Duration
	generation int

	accounts map[string]*account
	refresh  map[string]string

	categories []models.Category
	suppliers  []models.Supplier
	products   []models.Product
	orders     []models.Order
	items      []models.OrderItem
	nextID     int64

	requests     []Request
	refreshCalls int
	failRefresh  bool
	paginate     bool
	failures     map[string][]failure
	now          func() time.Time
}

func NewBackend() *Backend {
	return &Backend{
		secret:    []byte(uuid.NewString()),
		accessTTL: 5 * time.Minute,
		accounts:  map[string]*account{},
		refresh:   map[string]string{},
		failures:  map[string][]failure{},
		now:       time.Now,
	}
}

// NewServer starts b on a test HTTP server and returns the API base URL.
func NewServer(tb testing.TB, b *Backend) string {
	tb.Helper()
	srv := httptest.NewServer(b.Handler())
	tb.Cleanup(srv.Close)
	return srv.URL + Prefix
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

// AddUser registers an account and returns it.
func (b *Backend) AddUser(username, email, password string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUser(username, email, password)
}

func (b *Backend) addUser(username, email, password string) models.User {
	u := models.User{ID: b.id(), Username: username, Email: email}
	b.accounts[username] = &account{user: u, password: password}
	return u
}

// IssueAccessToken signs a valid access token for username.
func (b *Backend) IssueAccessToken(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueAccess(username)
}

func (b *Backend) issueAccess(username string) string {
	now := b.now()
	claims := accessClaims{
		Generation: b.generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(b.accessTTL)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		panic(fmt.Sprintf("sign access token: %v", err))
	}
	return signed
}

// SetAccessTTL changes the lifetime of access tokens issued from now on.
func (b *Backend) SetAccessTTL(ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accessTTL = ttl
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// cookies stay valid.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
}

// SetFailRefresh makes token/refresh/ reject every refresh cookie.
func (b *Backend) SetFailRefresh(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRefresh = fail
}

// SetPaginated wraps list responses in {"count", "results"}.
func (b *Backend) SetPaginated(p bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paginate = p
}

// FailNext queues a one-shot response for the next request matching method
// and path (relative to Prefix, e.g. "order-items/").
func (b *Backend) FailNext(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := method + " " + path
	b.failures[key] = append(b.failures[key], failure{status: status, body: body})
}

func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// RequestsTo returns the recorded requests to path (relative to Prefix).
func (b *Backend) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (b *Backend) RefreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

func (b *Backend) AddCategory(name string) models.Category {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := models.Category{ID: b.id(), Name: name}
	b.categories = append(b.categories, c)
	return c
}

func (b *Backend) AddSupplier(s models.Supplier) models.Supplier {
	b.mu.Lock()
	defer b.mu.Unlock()
	s.ID = b.id()
	b.suppliers = append(b.suppliers, s)
	return s
}

// AddProduct stores p as is, filling in the ID and the display names.
func (b *Backend) AddProduct(p models.Product) models.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	p.ID = b.id()
	b.decorate(&p)
	b.products = append(b.products, p)
	return p
}

func (b *Backend) Product(id int64) (models.Product, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p := b.product(id); p != nil {
		return *p, true
	}
	return models.Product{}, false
}

func (b *Backend) Orders() []models.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, b.withItems(o))
	}
	return out
}

// Seed loads a small demo catalogue and a demo/demo account.
func (b *Backend) Seed() {
	b.AddUser("demo", "demo@example.com", "demo")
	electronics := b.AddCategory("Electronics")
	office := b.AddCategory("Office")
	acme := b.AddSupplier(models.Supplier{Name: "Acme", Phone: "555-0100", Email: "sales@acme.test"})

	price := decimal.RequireFromString
	b.AddProduct(models.Product{Name: "Mouse", SKU: "MS-1", Price: price("19.99"), CurrentStock: 25, Category: electronics.ID, Supplier: &acme.ID})
	b.AddProduct(models.Product{Name: "Keyboard", SKU: "KB-1", Price: price("49.50"), CurrentStock: 4, Category: electronics.ID, Supplier: &acme.ID})
	b.AddProduct(models.Product{Name: "Stapler", SKU: "ST-1", Price: price("7.25"), CurrentStock: 0, Category: office.ID})
}

func (b *Backend) product(id int64) *models.Product {
	for i := range b.products {
		if b.products[i].ID == id {
			return &b.products[i]
		}
	}
	return nil
}

func (b *Backend) order(id int64) *models.Order {
	for i := range b.orders {
		if b.orders[i].ID == id {
			return &b.orders[i]
		}
	}
	return nil
}

func (b *Backend) withItems(o models.Order) models.Order {
	o.Items = nil
	for _, it := range b.items {
		if it.Order == o.ID {
			o.Items = append(o.Items, it)
		}
	}
	return o
}

func (b *Backend) decorate(p *models.Product) {
	p.CategoryName = ""
	for _, c := range b.categories {
		if c.ID == p.Category {
			p.CategoryName = c.Name
		}
	}
	p.SupplierName = ""
	if p.Supplier != nil {
		for _, s := range b.suppliers {
			if s.ID == *p.Supplier {
				p.SupplierName = s.Name
			}
		}
	}
}

// Handler returns the HTTP handler serving the API under Prefix.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Route(strings.TrimSuffix(Prefix, "/"), func(r chi.Router) {
		r.Get("/", b.handleRoot)
		r.Post("/auth/login/", b.handleLogin)
		r.Post("/auth/register/", b.handleRegister)
		r.Post("/token/refresh/", b.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(b.authenticate)

			r.Post("/auth/logout/", b.handleLogout)
			r.Get("/auth/user/", b.handleUser)

			r.Get("/categories/", b.handleListCategories)
			r.Post("/categories/", b.handleCreateCategory)
			r.Get("/suppliers/", b.handleListSuppliers)
			r.Post("/suppliers/", b.handleCreateSupplier)
			r.Get("/products/", b.handleListProducts)
			r.Post("/products/", b.handleCreateProduct)
			r.Patch("/products/{id}/update_stock/", b.handleUpdateStock)
			r.Put("/products/{id}/update_stock/", b.handleUpdateStock)

			r.Get("/orders/", b.handleListOrders)
			r.Post("/orders/", b.handleCreateOrder)
			r.Post("/orders/{id}/cancel/", b.handleCancelOrder)
			r.Post("/orders/{id}/complete/", b.handleCompleteOrder)
			r.Post("/order-items/", b.handleCreateOrderItem)
		})
	})

	return r
}

// record logs the request and serves any queued failure for it.
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		path := strings.TrimPrefix(r.URL.Path, Prefix)
		if r.URL.Path+"/" == Prefix {
			path = ""
		}

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:        r.Method,
			Path:          path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get(common.AuthorizationHeaderName),
			RequestID:     r.Header.Get(common.RequestIDHeaderName),
			Body:          string(body),
		})
		key := r.Method + " " + path
		var f *failure
		if queued := b.failures[key]; len(queued) > 0 {
			f = &queued[0]
			b.failures[key] = queued[1:]
		}
		b.mu.Unlock()

		if f != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const tokenInvalidDetail = "Given token not valid for any token type"

var errTokenInvalid = errors.New("token not valid")

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": tokenInvalidDetail})
			return
		}

		acc, err := b.verifyAccess(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": tokenInvalidDetail})
			return
		}
		next.ServeHTTP(w, r.WithContext(withAccount(r.Context(), acc)))
	})
}

func (b *Backend) verifyAccess(token string) (*account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(b.now))
	if err != nil {
		return nil, err
	}
	if claims.Generation != b.generation {
		return nil, errTokenInvalid
	}
	acc, ok := b.accounts[claims.Subject]
	if !ok {
		return nil, errTokenInvalid
	}
	return acc, nil
}

func sortedByName[T any](in []T, name func(T) string) []T {
	out := make([]T, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return name(out[i]) < name(out[j]) })
	return out
}
