// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/nbshell/internal/api"
	"github.com/starford/nbshell/internal/localstore"
	"github.com/starford/nbshell/internal/mcpserver"
	"github.com/starford/nbshell/internal/refresh"
	"github.com/starford/nbshell/internal/session"
	"github.com/starford/nbshell/internal/sidebar"
	"github.com/starford/nbshell/internal/sse"
	"github.com/starford/nbshell/internal/treeview"
	"github.com/starford/nbshell/internal/typemap"
	"github.com/starford/nbshell/internal/upstream"
	"github.com/starford/nbshell/internal/workspace"
)

// runtime holds the wired components shared by every entry point.
type runtime struct {
	logger *slog.Logger
	store  localstore.Store
	gate   *session.Gate
	types  *typemap.Map
	broker *sse.Broker
	svc    *workspace.Service
}

func (rt *runtime) close() {
	rt.broker.Close()
	if err := rt.store.Close(); err != nil {
		rt.logger.Warn("close store failed", slog.String("error", err.Error()))
	}
}

func newApplication(opts []Option, logOut io.Writer) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	if app.out == nil {
		app.out = os.Stdout
	}
	return app, nil
}

// wire builds the component graph and runs the startup session check.
func (a *application) wire(ctx context.Context) (*runtime, error) {
	cfg := a.config
	logger := a.logger

	store, err := localstore.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	client, err := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init upstream client: %w", err)
	}

	types := typemap.New(nil)
	if cfg.Types.MapPath != "" {
		if types, err = typemap.Load(cfg.Types.MapPath); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("load type map: %w", err)
		}
	}

	broker := sse.NewBroker(cfg.Sidebar.EventThrottle)
	gate := session.NewGate(localstore.WithPrefix(store, cfg.Store.Prefix), client, logger,
		session.WithTimeout(cfg.Upstream.Timeout),
		session.WithChangeHook(broker.PublishSession),
	)
	svc := workspace.NewService(gate, sidebar.NewState(), client, broker, types, logger)

	rt := &runtime{logger: logger, store: store, gate: gate, types: types, broker: broker, svc: svc}

	// Navigation waits for this outcome; it is bounded by the upstream timeout.
	authenticated := gate.Bootstrap(ctx)
	logger.Info("Session checked", slog.Bool("authenticated", authenticated))

	return rt, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("upstream", cfg.Upstream.BaseURL),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("store_path", cfg.Store.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt, err := app.wire(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (ungated).
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

	// API and view routes.
	r.Mount("/", api.NewRouter(rt.svc, rt.broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the sidebar in step with the notebook server.
	g.Go(func() error {
		return refresh.Run(gCtx, rt.svc, cfg.Sidebar.RefreshInterval, logger)
	})

	// Reload the type map when its file changes.
	if cfg.Types.MapPath != "" {
		g.Go(func() error {
			if err := typemap.Watch(gCtx, rt.types, cfg.Types.MapPath, logger, nil); err != nil {
				logger.Warn("typemap watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Returning an error cancels gCtx so the refresher and watcher stop.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}

	rt, err := app.wire(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if _, err := rt.svc.RefreshSidebar(ctx); err != nil {
		app.logger.Warn("initial sidebar load failed", slog.String("error", err.Error()))
	}

	app.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.svc).ServeStdio()
}

// RunTree checks the session, loads the notebook listing once and prints
// the sidebar tree.
func RunTree(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}

	rt, err := app.wire(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if _, err := rt.svc.RefreshSidebar(ctx); err != nil {
		return fmt.Errorf("load notebooks: %w", err)
	}
	view, err := rt.svc.Sidebar()
	if err != nil {
		return err
	}

	out := treeview.Render(view.Categories, view.DefaultLanding)
	if app.plain {
		out = treeview.Plain(view.Categories, view.DefaultLanding)
	}
	_, err = io.WriteString(app.out, out)
	return err
}
