package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/stockkeeper/internal/client/api"
	"github.com/dmitrijs2005/stockkeeper/internal/client/apitest"
	"github.com/dmitrijs2005/stockkeeper/internal/client/repositories/cart"
	"github.com/dmitrijs2005/stockkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/stockkeeper/internal/client/session"
	"github.com/dmitrijs2005/stockkeeper/internal/client/storage"
	"github.com/dmitrijs2005/stockkeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

// harness wires the services to a fake backend and an in-memory database,
// the same way the CLI does.
type harness struct {
	backend   *apitest.Backend
	db        *sql.DB
	meta      metadata.Repository
	cartRepo  cart.Repository
	session   *session.Session
	client    *api.Client
	auth      AuthService
	inventory InventoryService
	orders    OrderService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := apitest.NewBackend()
	backend.AddUser("ann", "ann@example.com", "pw")
	return newHarnessAt(t, backend, apitest.NewServer(t, backend))
}

func newHarnessAt(t *testing.T, backend *apitest.Backend, baseURL string) *harness {
	t.Helper()
	ctx := context.Background()

	db, err := storage.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{backend: backend, db: db}
	h.meta = metadata.NewSQLiteRepository(db)
	h.cartRepo = cart.NewSQLiteRepository(db)
	h.session = session.New(h.meta)

	h.client, err = api.New(baseURL, api.WithTokenSource(h.session))
	require.NoError(t, err)

	h.auth = NewAuthService(h.client, h.session, logging.Discard())
	h.client.SetRefreshHandler(h.auth.Refresh)
	h.inventory = NewInventoryService(h.client, 0)
	h.orders = NewOrderService(h.client, h.cartRepo, logging.Discard())
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	require.NoError(t, h.auth.Login(context.Background(), "ann", "pw"))
}
