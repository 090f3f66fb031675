// Package app assembles the attention-tracker HTTP application and owns its
// startup and shutdown lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/pliu/attention-tracker/internal/auth"
	"github.com/pliu/attention-tracker/internal/config"
	"github.com/pliu/attention-tracker/internal/handlers"
	"github.com/pliu/attention-tracker/internal/middleware"
	"github.com/pliu/attention-tracker/internal/store"
	"github.com/pliu/attention-tracker/internal/store/sqlstore"
	"github.com/pliu/attention-tracker/internal/ws"
)

// App is the HTTP application. Build it with New, then Start before serving.
type App struct {
	cfg    *config.Config
	logger *log.Logger
	store  store.Store
	hub    *ws.Hub
	router *mux.Router

	mu        sync.Mutex
	started   bool
	stopped   bool
	cancelHub context.CancelFunc
}

// New connects to the store named by cfg and wires the routes. The store is
// expected to have been initialized already (see database.Init).
func New(cfg *config.Config, logger *log.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	creds, err := auth.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	s, err := sqlstore.New(cfg.Driver(), cfg.DataSource())
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		store:  s,
		hub:    ws.NewHub(logger),
	}
	a.router = a.routes(creds)

	if creds != nil {
		logger.Info("basic auth enabled", "user", cfg.BasicAuthUser)
	}
	return a, nil
}

func (a *App) routes(creds *auth.Credentials) *mux.Router {
	healthHandler := &handlers.HealthHandler{Store: a.store}
	itemHandler := &handlers.ItemHandler{Store: a.store, Hub: a.hub}

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(a.logger))

	r.HandleFunc("/healthz", healthHandler.Health).Methods("GET")

	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.BasicAuth(creds))

	// API Endpoints
	protected.HandleFunc("/api/items", itemHandler.ListItems).Methods("GET")
	protected.HandleFunc("/api/items", itemHandler.CreateItem).Methods("POST")
	protected.HandleFunc("/api/items/{id}", itemHandler.GetItem).Methods("GET")
	protected.HandleFunc("/api/items/{id}", itemHandler.UpdateItem).Methods("PATCH")
	protected.HandleFunc("/api/items/{id}", itemHandler.DeleteItem).Methods("DELETE")

	// WebSocket Endpoint
	protected.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(a.hub, w, r)
	})

	return r
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Start runs the startup sequence: it verifies the schema and starts the event hub.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return errors.New("app: already shut down")
	}
	if a.started {
		return errors.New("app: already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := a.store.Migrate(); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	hubCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancelHub = cancel
	go a.hub.Run(hubCtx)

	a.started = true
	a.logger.Debug("application started", "driver", a.cfg.Driver())
	return nil
}

// Shutdown stops the event hub and closes the store. Calling it more than once is a no-op.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return nil
	}
	a.stopped = true

	if a.started {
		a.cancelHub()
		select {
		case <-a.hub.Done():
		case <-ctx.Done():
			a.store.Close()
			return fmt.Errorf("waiting for event hub: %w", ctx.Err())
		}
	}

	if err := a.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	a.logger.Debug("application stopped")
	return nil
}

// Serve starts the application and listens on addr until ctx is cancelled.
func (a *App) Serve(ctx context.Context, addr string) error {
	if err := a.Start(ctx); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Shutdown(shutdownCtx)
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}
