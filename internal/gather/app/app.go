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

	"github.com/aussiebroadwan/gather/internal/gather/dispatch"
	httpapi "github.com/aussiebroadwan/gather/internal/gather/http"
	"github.com/aussiebroadwan/gather/internal/gather/identity"
	"github.com/aussiebroadwan/gather/internal/gather/livesync"
	"github.com/aussiebroadwan/gather/internal/gather/reconcile"
	"github.com/aussiebroadwan/gather/internal/gather/registry"
	"github.com/aussiebroadwan/gather/internal/gather/service"
	"github.com/aussiebroadwan/gather/internal/gather/store"
	"github.com/aussiebroadwan/gather/internal/gather/store/drivers/sqlite"
	"github.com/aussiebroadwan/gather/pkg/idx"
	"github.com/aussiebroadwan/gather/pkg/jwtx"
	"github.com/aussiebroadwan/gather/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the gather service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	signer *jwtx.Signer
	sync   *livesync.Adapter

	// Services
	accountService      *service.AccountService
	eventService        *service.EventService
	rsvpService         *service.RsvpService
	invitationService   *service.InvitationService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the service logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "gather",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, err := InitSigner(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize signing key: %w", err)
	}
	app.signer = signer

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gather service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.db.Close()
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gather service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	app.router.CloseStreams()
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gather service stopped")
	return nil
}

// OpenStore opens the configured database and applies migrations.
func OpenStore(cfg Config) (*sqlite.Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

func (app *Application) initDatabase() error {
	db, err := OpenStore(app.cfg)
	if err != nil {
		return err
	}
	app.db = db

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

// initServices wires the reconciliation core to the store.
func (app *Application) initServices() {
	now := func() time.Time { return time.Now().UTC() }

	normalizer := identity.Normalizer{
		CountryCode: app.cfg.CountryCode,
		TrunkPrefix: app.cfg.TrunkPrefix,
	}
	reg := registry.Registry{Normalizer: normalizer}
	reconciler := reconcile.Reconciler{Registry: reg}

	app.sync = livesync.NewAdapter(app.db, livesync.NewFeed())
	app.sync.Registry = reg
	app.sync.MaxAttempts = app.cfg.MaxWrites
	app.sync.Now = now

	app.accountService = &service.AccountService{
		Store:      app.db,
		Normalizer: normalizer,
		Signer:     app.signer,
		Issuer:     app.cfg.Issuer,
		TokenTTL:   app.cfg.TokenTTL,
		NewID:      idx.Generator(idx.KindAccount),
		Now:        now,
	}
	app.eventService = &service.EventService{
		Store:      app.db,
		Sync:       app.sync,
		Reconciler: reconciler,
		NewID:      idx.Generator(idx.KindEvent),
		Now:        now,
	}
	app.rsvpService = &service.RsvpService{
		Sync:       app.sync,
		Reconciler: reconciler,
		Now:        now,
	}
	app.invitationService = &service.InvitationService{
		Store:  app.db,
		Events: app.eventService,
		Rsvp:   app.rsvpService,
		Dispatcher: &dispatch.Dispatcher{
			Directory:  app.sync,
			Outbox:     app.sync,
			Normalizer: normalizer,
			NewID:      idx.Generator(idx.KindNotification),
			Now:        now,
		},
		NewID:   idx.Generator(idx.KindLink),
		Now:     now,
		LinkTTL: app.cfg.LinkTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer.Verifier(app.cfg.Issuer),
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AccountService = app.accountService
	router.EventService = app.eventService
	router.RsvpService = app.rsvpService
	router.InvitationService = app.invitationService
	router.Limits = httpapi.Limits{
		Strict:   app.cfg.RateLimitStrict,
		Moderate: app.cfg.RateLimitModerate,
		Lenient:  app.cfg.RateLimitLenient,
	}
	router.StreamPing = app.cfg.StreamPing
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
