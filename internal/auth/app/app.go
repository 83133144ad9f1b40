package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/socauth/internal/auth/http"
	"github.com/aussiebroadwan/socauth/internal/auth/metrics"
	"github.com/aussiebroadwan/socauth/internal/auth/service"
	"github.com/aussiebroadwan/socauth/internal/auth/store"
	"github.com/aussiebroadwan/socauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/socauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/socauth/pkg/cryptox"
	"github.com/aussiebroadwan/socauth/pkg/slogx"
	"github.com/aussiebroadwan/socauth/pkg/totpx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// Services
	authService         *service.AuthService
	sessionManager      *service.SessionManager
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "socauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Password hashing
	cryptox.SetPepperPath(cfg.PepperFile)
	if err := cryptox.ReloadPepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	cryptox.SetParams(cryptox.Params{
		Memory:      cfg.Password.Argon2MemoryKiB,
		Iterations:  cfg.Password.Argon2Iterations,
		Parallelism: cfg.Password.Argon2Parallelism,
	})

	if err := app.initDatabase(context.Background()); err != nil {
		return nil, err
	}

	app.initMetrics()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"driver", app.cfg.Database.Driver,
		"idle_timeout", app.cfg.Session.IdleTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		app.stopHousekeeping()
		_ = app.db.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopHousekeeping()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.Database.Driver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.Database.PostgresDSN())
	default:
		db, err = sqlite.NewStore(sqlite.FileDSN(app.cfg.Database.File))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.db = db

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.Database.Driver)
	return nil
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.sessionManager = &service.SessionManager{
		Store:       app.db,
		IdleTimeout: app.cfg.Session.IdleTimeout,
		Metrics:     app.metrics,
	}

	app.authService = &service.AuthService{
		Store:             app.db,
		TOTP:              totpx.New(app.cfg.MFAIssuer),
		Sessions:          app.sessionManager,
		Metrics:           app.metrics,
		MinPasswordLength: app.cfg.Password.MinLength,
	}

	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Auth:  app.authService,
		Token: app.cfg.BootstrapToken,
	}

	// Expiry is enforced on validation; the sweep only reclaims space
	if app.cfg.HousekeepingInterval > 0 {
		app.housekeepingService = service.NewHousekeepingService(
			app.sessionManager,
			app.logger,
			app.cfg.HousekeepingInterval,
		)
	}
}

func (app *Application) stopHousekeeping() {
	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.AuthService = app.authService
	router.SessionManager = app.sessionManager
	router.BootstrapService = app.bootstrapService
	router.Cookie = httpapi.CookieConfig{
		Name:   app.cfg.Session.CookieName,
		Secure: app.cfg.Session.CookieSecure,
	}
	router.Gatherer = app.registry
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
