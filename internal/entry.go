// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/telenote/internal/api"
	"github.com/starford/telenote/internal/auth"
	"github.com/starford/telenote/internal/mcpserver"
	"github.com/starford/telenote/internal/models"
	"github.com/starford/telenote/internal/noteservice"
	"github.com/starford/telenote/internal/sse"
	"github.com/starford/telenote/internal/store"
)

func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

func openStore(cfg *Config) (*store.DB, error) {
	db, err := store.Open(cfg.SQLite.Path,
		store.WithSelfLinks(cfg.Graph.AllowSelfLinks),
		store.WithAutoCompleteTimestamp(cfg.Tasks.AutoCompleteTimestamp),
	)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	return db, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// SSE broker receives service events.
	broker := sse.NewBroker(cfg.Events.GraphThrottle)
	defer broker.Close()

	svc := noteservice.NewService(db,
		noteservice.WithPublisher(broker),
		noteservice.WithMaxDepth(cfg.Graph.MaxDepth),
	)

	resolve := api.FixedIdentity(cfg.Auth.DevExternalID)
	if cfg.Auth.AuthEnabled() {
		resolve = api.BearerIdentity(auth.New(cfg.Auth.Secret, cfg.Auth.TokenTTL))
	} else {
		logger.Warn("Authentication disabled", slog.Int64("dev_external_id", cfg.Auth.DevExternalID))
	}
	apiRouter := api.NewRouter(svc, resolve, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.Ping(r.Context()); err != nil {
			logger.Error("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Open SSE streams only end once the broker closes.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout as the configured MCP user.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	externalID := cfg.MCP.ExternalID
	if externalID == 0 {
		externalID = cfg.Auth.DevExternalID
	}
	if externalID <= 0 {
		return fmt.Errorf("mcp: external_id is not configured")
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := noteservice.NewService(db, noteservice.WithMaxDepth(cfg.Graph.MaxDepth))
	if _, err := svc.Authenticate(ctx, models.Identity{ExternalID: externalID}); err != nil {
		return fmt.Errorf("mcp: resolve user: %w", err)
	}

	logger.Info("MCP server starting on stdio", slog.Int64("external_id", externalID))
	return mcpserver.New(svc, externalID).ServeStdio()
}

// IssueToken signs an identity token with the configured secret.
func IssueToken(cfg *Config, id models.Identity) (string, error) {
	if !cfg.Auth.AuthEnabled() {
		return "", fmt.Errorf("token: auth mode is %q, tokens are only accepted in %q mode", cfg.Auth.Mode, AuthModeJWT)
	}
	return auth.New(cfg.Auth.Secret, cfg.Auth.TokenTTL).Issue(id)
}
