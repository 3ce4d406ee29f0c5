// Package server provides the main server initialization and run logic.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/nebari-dev/authz/internal/api"
	"github.com/nebari-dev/authz/internal/api/handlers"
	"github.com/nebari-dev/authz/internal/auth"
	"github.com/nebari-dev/authz/internal/config"
	"github.com/nebari-dev/authz/internal/db"
	"github.com/nebari-dev/authz/internal/logger"
	"github.com/nebari-dev/authz/internal/rbac"
)

const shutdownTimeout = 10 * time.Second

// Config holds the server configuration options.
type Config struct {
	Port    int    // Port to run the server on (0 = use config default)
	Version string // Version string to report
}

// Open loads configuration, initializes logging and connects to the database.
func Open() (*config.Config, *gorm.DB, error) {
	appCfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(appCfg.Log.Format, appCfg.Log.Level)

	// Propagate app log level to database if not explicitly set
	if appCfg.Database.LogLevel == "" {
		appCfg.Database.LogLevel = appCfg.Log.Level
	}

	database, err := db.New(appCfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Database initialized", "driver", db.DriverFor(appCfg.Database))
	return appCfg, database, nil
}

// Run starts the server with the given configuration and blocks until the context is canceled.
func Run(ctx context.Context, cfg Config) error {
	// Set version in handlers
	if cfg.Version != "" {
		handlers.Version = cfg.Version
	}

	appCfg, database, err := Open()
	if err != nil {
		return err
	}
	if cfg.Port != 0 {
		appCfg.Server.Port = cfg.Port
	}
	slog.Info("Starting authz server", "version", cfg.Version, "mode", appCfg.Server.Mode)

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed")

	enforcer, err := rbac.NewEnforcer(database, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to initialize RBAC: %w", err)
	}

	issuers, err := appCfg.Auth.Issuers()
	if err != nil {
		return err
	}

	router := api.NewRouter(appCfg, api.Deps{
		DB:       database,
		Verifier: auth.NewJWTVerifier(appCfg.Auth.Secret, issuers),
		Policy:   enforcer,
	})

	addr := fmt.Sprintf(":%d", appCfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server listening", "address", addr, "base_path", appCfg.Server.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		slog.Info("Server stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("authz exited")
	return nil
}

// RunWithSignalHandling starts the server and handles OS signals for graceful shutdown.
func RunWithSignalHandling(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return Run(ctx, cfg)
}

// NewM2MClient builds the machine token client with a Valkey cache when an
// address is configured and an in-process cache otherwise. The returned
// function releases the cache.
func NewM2MClient(appCfg *config.Config) (*auth.M2MClient, func(), error) {
	var cache auth.TokenCache = auth.NewMemoryTokenCache()
	closeCache := func() {}

	if appCfg.M2M.ValkeyAddr != "" {
		vc, err := auth.NewValkeyTokenCache(appCfg.M2M.ValkeyAddr)
		if err != nil {
			return nil, nil, err
		}
		cache, closeCache = vc, vc.Close
	}

	client, err := auth.NewM2MClient(appCfg.M2M, cache)
	if err != nil {
		closeCache()
		return nil, nil, err
	}
	return client, closeCache, nil
}
