package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/stockkeeper/internal/client/api"
	"github.com/dmitrijs2005/stockkeeper/internal/client/config"
	"github.com/dmitrijs2005/stockkeeper/internal/client/repositories/cart"
	"github.com/dmitrijs2005/stockkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/stockkeeper/internal/client/services"
	"github.com/dmitrijs2005/stockkeeper/internal/client/session"
	"github.com/dmitrijs2005/stockkeeper/internal/client/storage"
	"github.com/dmitrijs2005/stockkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config           *config.Config
	db               *sql.DB
	log              logging.Logger
	authService      services.AuthService
	inventoryService services.InventoryService
	orderService     services.OrderService

	modeMu sync.RWMutex
	mode   Mode

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local database and wires the API client, the session and
// the services. The API client refreshes expired tokens through the auth
// service.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(c.LogLevel, os.Stderr)

	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	sess := session.New(metadata.NewSQLiteRepository(db))

	apiClient, err := api.New(c.APIBaseURL,
		api.WithTokenSource(sess),
		api.WithLogger(log),
		api.WithTimeout(c.RequestTimeout),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, sess, log)
	apiClient.SetRefreshHandler(as.Refresh)

	return &App{
		config:           c,
		db:               db,
		log:              log,
		authService:      as,
		inventoryService: services.NewInventoryService(apiClient, c.LowStockThreshold),
		orderService:     services.NewOrderService(apiClient, cart.NewSQLiteRepository(db), log),
		reader:           bufio.NewReader(os.Stdin),
		out:              os.Stdout,
	}, nil
}

func (a *App) Mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed && a.log != nil {
		a.log.Info(context.Background(), fmt.Sprintf("Switched to %s mode", mode))
	}
}

// Run verifies the saved session, restores the cart and runs the REPL until
// the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.authService.Init(ctx)
	if err := a.orderService.Load(ctx); err != nil {
		a.log.Warn(ctx, "cart not restored", "error", err)
	}

	a.Root(ctx)
}

func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.authService != nil && a.authService.IsAuthenticated()
}

// StartOnlineStatusWatcher pings the API root every interval and switches
// the mode accordingly. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.authService.Ping(ctx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// fail prints err for the user and returns it.
func (a *App) fail(err error, fallback string, fields ...string) error {
	a.printf("Error: %s\n", services.Describe(err, fallback, fields...))
	return err
}
