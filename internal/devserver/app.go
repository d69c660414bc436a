// Package devserver runs the in-memory inventory backend over HTTP so the
// CLI can be used without the real service.
package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/stockkeeper/internal/client/apitest"
	"github.com/dmitrijs2005/stockkeeper/internal/devserver/config"
	"github.com/dmitrijs2005/stockkeeper/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	backend *apitest.Backend
}

func NewApp(c *config.Config) *App {
	logger := logging.New(c.LogLevel, os.Stdout).With("module", "devserver")

	backend := apitest.NewBackend()
	backend.SetAccessTTL(c.AccessTokenTTL)
	backend.SetPaginated(c.Paginate)
	if c.Seed {
		backend.Seed()
	}

	return &App{config: c, logger: logger, backend: backend}
}

// Handler is the backend's router with request logging.
func (app *App) Handler() http.Handler {
	h := app.backend.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.logger.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path)
		h.ServeHTTP(w, r)
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// serve accepts connections on l until ctx is done, then shuts down.
func (app *App) serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{Handler: app.Handler(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", l.Addr().String(), "api", "http://"+l.Addr().String()+apitest.Prefix)

	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves the backend until ctx is cancelled or the process receives
// SIGINT, SIGTERM or SIGQUIT.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	l, err := net.Listen("tcp", app.config.Address)
	if err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		serveErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		serveErr = app.serve(ctx, l)
		cancelFunc()
	}()

	wg.Wait()
	return serveErr
}
