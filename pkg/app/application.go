package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	eventshandler "github.com/PaingThuTa/booking-system-intern/internal/events/handler"
	healthhandler "github.com/PaingThuTa/booking-system-intern/internal/health/handler"
	usershandler "github.com/PaingThuTa/booking-system-intern/internal/users/handler"
	"github.com/PaingThuTa/booking-system-intern/pkg/config"
	"github.com/PaingThuTa/booking-system-intern/pkg/contracts"
	"github.com/PaingThuTa/booking-system-intern/pkg/db"
	"github.com/PaingThuTa/booking-system-intern/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// ShutdownHook releases a resource once the server has stopped accepting
// requests. Hooks run in registration order.
type ShutdownHook struct {
	Name string
	Fn   func(ctx context.Context) error
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	store            db.Pinger
	tokens           middleware.TokenParser
	idempotencyStore middleware.IdempotencyStore
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	drains           []func()
	hooks            []ShutdownHook
}

func NewApplication(
	cfg *config.Config,
	store db.Pinger,
	tokens middleware.TokenParser,
	idempotencyStore middleware.IdempotencyStore,
) *Application {
	return &Application{
		cfg:              cfg,
		store:            store,
		tokens:           tokens,
		idempotencyStore: idempotencyStore,
	}
}

// OnShutdown registers fn to run during graceful shutdown.
func (a *Application) OnShutdown(name string, fn func(ctx context.Context) error) {
	a.hooks = append(a.hooks, ShutdownHook{Name: name, Fn: fn})
}

// OnDrain registers fn to run as soon as shutdown starts. Long-lived
// handlers such as event streams use it to end their requests, since
// http.Server.Shutdown waits for them.
func (a *Application) OnDrain(fn func()) {
	a.drains = append(a.drains, fn)
}

func (a *Application) SetApp(appHandlers ...contracts.Handler) {
	a.setHealthHandler()
	a.setAppHandler(appHandlers)
	a.setAppServer()
}

// Handler returns the root handler once SetApp has run.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	healthhandler.NewHealthHandler(a.store, a.cfg.Log).RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(appHandlers []contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range appHandlers {
		h.RegisterRoutes(appRouter)
	}

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, middleware.DefaultIdempotencyHeader, a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout, eventshandler.StreamPath)(appHttpHandler)
	appHttpHandler = middleware.Authentication(a.tokens, a.cfg.Log, middleware.AuthPaths{
		Public:     []string{usershandler.SignInPath},
		QueryToken: []string{eventshandler.StreamPath},
	})(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured with full middleware stack", "handlers", len(appHandlers))
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle(healthhandler.HealthPath, a.healthHandler)
	mux.Handle(healthhandler.ReadyPath, a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}
	for _, fn := range a.drains {
		a.server.RegisterOnShutdown(fn)
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.cfg.Log.Error("HTTP server failed", "error", err)
		}
		a.release(context.Background())
		os.Exit(1)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}
	a.cfg.Log.Info("Server stopped")

	a.release(ctx)
	a.cfg.Log.Info("Shutdown complete")
}

func (a *Application) release(ctx context.Context) {
	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	for _, hook := range a.hooks {
		if err := hook.Fn(ctx); err != nil {
			a.cfg.Log.Error("Shutdown hook failed", "hook", hook.Name, "error", err)
			continue
		}
		a.cfg.Log.Info("Shutdown hook completed", "hook", hook.Name)
	}
	a.cfg.GracefulShutdown()
}
