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

	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/render"
	"github.com/starford/raido/internal/server"
	"github.com/starford/raido/internal/site"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/storage"
)

// rebuildDebounce coalesces bursts of file events (editors often write a
// file several times per save) into a single rebuild.
const rebuildDebounce = 300 * time.Millisecond

// NewBuilder constructs the site builder from the configuration.
// liveReload injects the reload listener into generated pages; only
// `raido serve` sets it.
func NewBuilder(cfg *Config, logger *slog.Logger, liveReload bool) (storage.Provider, *site.Builder, error) {
	if err := os.MkdirAll(cfg.Content.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create content dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Content.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	builder, err := site.New(store, site.Options{
		Site: render.SiteMeta{
			Title:       cfg.Site.Title,
			Author:      cfg.Site.Author,
			Description: cfg.Site.Description,
			BaseURL:     cfg.Site.BaseURL,
		},
		OutputDir:    cfg.Content.OutputDir,
		StaticDir:    cfg.Content.StaticDir,
		PostsPerPage: cfg.Site.PostsPerPage,
		LiveReload:   liveReload,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, builder, nil
}

// NewLogger builds the structured JSON logger and installs it as default.
func NewLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the serve mode: an initial build, a content watcher that
// rebuilds on change, and an HTTP server for the generated site plus the
// JSON API and SSE live reload.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := NewLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_dir", cfg.Content.Dir),
		slog.String("output_dir", cfg.Content.OutputDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, builder, err := NewBuilder(cfg, logger, true)
	if err != nil {
		return err
	}

	// Initial build. Content errors are reported but do not abort serve;
	// the author fixes files while the watcher keeps rebuilding.
	if _, err := builder.Build(ctx); err != nil {
		logger.Warn("initial build failed", slog.String("error", err.Error()))
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker for live reload.
	broker := sse.NewBroker(500 * time.Millisecond)
	defer broker.Close()

	// Build API service and router.
	svc := server.NewService(store, db)
	apiRouter := server.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Everything else is the generated site.
	r.NotFound(server.SiteHandler(cfg.Content.OutputDir).ServeHTTP)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// Explicit cancel so the watcher and rebuild loop exit once the HTTP
	// server has shut down.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild requests from the watcher, coalesced by the rebuild loop.
	rebuildCh := make(chan struct{}, 1)
	requestRebuild := func() {
		select {
		case rebuildCh <- struct{}{}:
		default:
		}
	}

	// Start file watcher: index updates + rebuild trigger + SSE post events.
	g.Go(func() error {
		return index.Watch(gCtx, db, store, store.Root(), logger, func(kind, path string) {
			broker.PublishPostEvent(kind, path)
			requestRebuild()
		})
	})

	// Rebuild loop: debounce, rebuild, notify browsers.
	g.Go(func() error {
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-gCtx.Done():
				if timer != nil {
					timer.Stop()
				}
				return nil
			case <-rebuildCh:
				if timer == nil {
					timer = time.NewTimer(rebuildDebounce)
					fire = timer.C
				} else {
					timer.Reset(rebuildDebounce)
				}
			case <-fire:
				if _, err := builder.Build(gCtx); err != nil {
					logger.Warn("rebuild failed", slog.String("error", err.Error()))
					continue
				}
				broker.PublishReload()
			}
		}
	})

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

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		cancel()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
