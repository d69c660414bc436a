package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
	"github.com/dmitrijs2005/stockkeeper/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type accountKey struct{}

func withAccount(ctx context.Context, acc *account) context.Context {
	return context.WithValue(ctx, accountKey{}, acc)
}

func accountFrom(ctx context.Context) *account {
	acc, _ := ctx.Value(accountKey{}).(*account)
	return acc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fieldError(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string][]string{field: {msg}})
}

func errorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (b *Backend) writeList(w http.ResponseWriter, items any, count int) {
	b.mu.Lock()
	paginate := b.paginate
	b.mu.Unlock()

	if paginate {
		writeJSON(w, http.StatusOK, map[string]any{"count": count, "next": nil, "previous": nil, "results": items})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (b *Backend) handleRoot(w http.ResponseWriter, r *http.Request) {
	links := map[string]string{}
	for _, name := range []string{"categories", "suppliers", "products", "orders", "order-items"} {
		links[name] = Prefix + name + "/"
	}
	writeJSON(w, http.StatusOK, links)
}

func (b *Backend) setRefreshCookie(w http.ResponseWriter, username string) {
	id := uuid.NewString()
	b.refresh[id] = username
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshCookieName,
		Value:    id,
		Path:     Prefix,
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (b *Backend) authResponse(w http.ResponseWriter, status int, acc *account) {
	b.setRefreshCookie(w, acc.user.Username)
	writeJSON(w, status, models.AuthResponse{
		User:   acc.user,
		Tokens: models.Tokens{Access: b.issueAccess(acc.user.Username)},
	})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" || in.Password == "" {
		errorMsg(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[in.Username]
	if !ok || acc.password != in.Password {
		errorMsg(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	b.authResponse(w, http.StatusOK, acc)
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" || in.Password == "" {
		errorMsg(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.accounts[in.Username]; exists {
		errorMsg(w, http.StatusBadRequest, "Username already exists")
		return
	}
	b.addUser(in.Username, in.Email, in.Password)
	b.authResponse(w, http.StatusCreated, b.accounts[in.Username])
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++

	cookie, err := r.Cookie(common.RefreshCookieName)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Refresh token missing"})
		return
	}
	username, ok := b.refresh[cookie.Value]
	if !ok || b.failRefresh {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid refresh token"})
		return
	}
	writeJSON(w, http.StatusOK, models.Tokens{Access: b.issueAccess(username)})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	if cookie, err := r.Cookie(common.RefreshCookieName); err == nil {
		delete(b.refresh, cookie.Value)
	}
	b.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: common.RefreshCookieName, Value: "", Path: Prefix, MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (b *Backend) handleUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]models.User{"user": accountFrom(r.Context()).user})
}

func (b *Backend) handleListCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := sortedByName(b.categories, func(c models.Category) string { return c.Name })
	b.mu.Unlock()
	b.writeList(w, out, len(out))
}

func (b *Backend) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in models.Category
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		fieldError(w, "cname", "This field may not be blank.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.categories {
		if c.Name == in.Name {
			fieldError(w, "cname", "category with this cname already exists.")
			return
		}
	}
	in.ID = b.id()
	b.categories = append(b.categories, in)
	writeJSON(w, http.StatusCreated, in)
}

func (b *Backend) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := sortedByName(b.suppliers, func(s models.Supplier) string { return s.Name })
	b.mu.Unlock()
	b.writeList(w, out, len(out))
}

func (b *Backend) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var in models.Supplier
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	switch {
	case strings.TrimSpace(in.Name) == "":
		fieldError(w, "name", "This field may not be blank.")
		return
	case in.Email != "" && !strings.Contains(in.Email, "@"):
		fieldError(w, "email", "Enter a valid email address.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	in.ID = b.id()
	b.suppliers = append(b.suppliers, in)
	writeJSON(w, http.StatusCreated, in)
}

func (b *Backend) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	category, _ := strconv.ParseInt(q.Get("category"), 10, 64)
	supplier, _ := strconv.ParseInt(q.Get("supplier"), 10, 64)
	stockLT, stockErr := strconv.Atoi(q.Get("stock_lt"))

	b.mu.Lock()
	var out []models.Product
	for _, p := range b.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		if category > 0 && p.Category != category {
			continue
		}
		if supplier > 0 && (p.Supplier == nil || *p.Supplier != supplier) {
			continue
		}
		if stockErr == nil && stockLT >= 0 && p.CurrentStock >= stockLT {
			continue
		}
		out = append(out, p)
	}
	b.mu.Unlock()

	sortProducts(out, q.Get("ordering"))
	if out == nil {
		out = []models.Product{}
	}
	b.writeList(w, out, len(out))
}

func sortProducts(ps []models.Product, ordering string) {
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")

	less := func(a, b models.Product) bool { return a.Name < b.Name }
	switch field {
	case "current_stock":
		less = func(a, b models.Product) bool { return a.CurrentStock < b.CurrentStock }
	case "price":
		less = func(a, b models.Product) bool { return a.Price.LessThan(b.Price) }
	}
	sort.SliceStable(ps, func(i, j int) bool {
		if desc {
			return less(ps[j], ps[i])
		}
		return less(ps[i], ps[j])
	})
}

func (b *Backend) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in models.Product
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case strings.TrimSpace(in.Name) == "":
		fieldError(w, "name", "This field may not be blank.")
		return
	case strings.TrimSpace(in.SKU) == "":
		fieldError(w, "sku", "This field may not be blank.")
		return
	case in.Price.IsNegative():
		fieldError(w, "price", "Ensure this value is greater than or equal to 0.")
		return
	case in.CurrentStock < 0:
		fieldError(w, "current_stock", "Ensure this value is greater than or equal to 0.")
		return
	}
	for _, p := range b.products {
		if p.SKU == in.SKU {
			fieldError(w, "sku", "product with this sku already exists.")
			return
		}
	}
	found := false
	for _, c := range b.categories {
		found = found || c.ID == in.Category
	}
	if !found {
		fieldError(w, "category", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", in.Category))
		return
	}

	in.ID = b.id()
	b.decorate(&in)
	b.products = append(b.products, in)
	writeJSON(w, http.StatusCreated, in)
}

func (b *Backend) handleUpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	var in map[string]any
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		in = map[string]any{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.product(id)
	if !ok || p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No Product matches the given query."})
		return
	}
	raw, present := in["current_stock"]
	if !present || raw == nil {
		errorMsg(w, http.StatusBadRequest, "current_stock field is required")
		return
	}
	n, isNum := raw.(float64)
	if !isNum || n != float64(int(n)) {
		errorMsg(w, http.StatusBadRequest, "Stock must be a valid integer")
		return
	}
	if n < 0 {
		errorMsg(w, http.StatusBadRequest, "Stock cannot be negative")
		return
	}
	p.CurrentStock = int(n)
	writeJSON(w, http.StatusOK, *p)
}

func (b *Backend) handleListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))

	b.mu.Lock()
	out := []models.Order{}
	for i := len(b.orders) - 1; i >= 0; i-- {
		o := b.orders[i]
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, b.withItems(o))
	}
	b.mu.Unlock()

	b.writeList(w, out, len(out))
}

func (b *Backend) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in models.Order
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	if in.Status == "" {
		in.Status = models.OrderPending
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now().UTC()
	o := models.Order{ID: b.id(), CreatedAt: &now, Status: in.Status}
	b.orders = append(b.orders, o)
	writeJSON(w, http.StatusCreated, o)
}

func (b *Backend) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	b.orderTransition(w, r, func(o *models.Order) string {
		switch o.Status {
		case models.OrderCancelled:
			return "Order is already cancelled."
		case models.OrderCompleted:
			return "Cannot cancel a completed order."
		}
		for _, it := range b.items {
			if it.Order != o.ID {
				continue
			}
			if p := b.product(it.Product); p != nil {
				p.CurrentStock += it.Quantity
			}
		}
		o.Status = models.OrderCancelled
		return ""
	})
}

func (b *Backend) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	b.orderTransition(w, r, func(o *models.Order) string {
		switch o.Status {
		case models.OrderCompleted:
			return "Order is already completed."
		case models.OrderCancelled:
			return "Cannot complete a cancelled order."
		}
		o.Status = models.OrderCompleted
		return ""
	})
}

// orderTransition applies fn to the order in the URL. A non-empty result
// from fn is the error message of a 400.
func (b *Backend) orderTransition(w http.ResponseWriter, r *http.Request, fn func(o *models.Order) string) {
	id, ok := pathID(r)

	b.mu.Lock()
	defer b.mu.Unlock()

	o := b.order(id)
	if !ok || o == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No Order matches the given query."})
		return
	}
	if msg := fn(o); msg != "" {
		errorMsg(w, http.StatusBadRequest, msg)
		return
	}
	writeJSON(w, http.StatusOK, b.withItems(*o))
}

func (b *Backend) handleCreateOrderItem(w http.ResponseWriter, r *http.Request) {
	var in models.OrderItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	o := b.order(in.Order)
	if o == nil {
		fieldError(w, "order", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", in.Order))
		return
	}
	p := b.product(in.Product)
	if p == nil {
		fieldError(w, "product", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", in.Product))
		return
	}
	if in.Quantity <= 0 {
		fieldError(w, "quantity", "Quantity must be greater than 0.")
		return
	}
	if in.Quantity > p.CurrentStock {
		fieldError(w, "non_field_errors", fmt.Sprintf("Insufficient stock. Available: %d, Requested: %d", p.CurrentStock, in.Quantity))
		return
	}
	if o.Status != models.OrderPending {
		fieldError(w, "non_field_errors", fmt.Sprintf("Cannot add items to %s orders.", strings.ToLower(o.Status.String())))
		return
	}

	price := p.Price
	item := models.OrderItem{
		ID:              b.id(),
		Order:           o.ID,
		Product:         p.ID,
		ProductName:     p.Name,
		Quantity:        in.Quantity,
		PriceAtPurchase: &price,
	}
	p.CurrentStock -= in.Quantity
	b.items = append(b.items, item)
	writeJSON(w, http.StatusCreated, item)
}
