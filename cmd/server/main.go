// Startup Navigator - wizard and roadmap server
package main

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
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ashureev/startup-navigator/internal/api"
	"github.com/ashureev/startup-navigator/internal/backend"
	"github.com/ashureev/startup-navigator/internal/catalog"
	"github.com/ashureev/startup-navigator/internal/config"
	"github.com/ashureev/startup-navigator/internal/identity"
	"github.com/ashureev/startup-navigator/internal/loading"
	"github.com/ashureev/startup-navigator/internal/middleware"
	"github.com/ashureev/startup-navigator/internal/session"
	"github.com/ashureev/startup-navigator/internal/store"
	"github.com/ashureev/startup-navigator/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "store", cfg.StoreDriver, "api_url", cfg.Backend.URL)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped successfully")
}

func openStore(cfg *config.Config) (store.Repository, error) {
	if cfg.StoreDriver == config.StoreSQLite {
		return store.NewSQLite(cfg.DBPath)
	}
	return store.NewMemory(), nil
}

func run(cfg *config.Config) error {
	repo, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		return fmt.Errorf("store health check: %w", err)
	}
	slog.Info("Store connected")

	// A restart interrupts any in-flight submission; its flag would otherwise stick.
	reset, err := repo.ResetStaleSubmissions(context.Background())
	if err != nil {
		return fmt.Errorf("reset stale submissions: %w", err)
	}
	if reset > 0 {
		slog.Warn("Cleared interrupted submissions", "count", reset)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	client := backend.NewClient(backend.Config{
		BaseURL:       cfg.Backend.URL,
		SubmitTimeout: cfg.Backend.SubmitTimeout,
		HealthTimeout: cfg.Backend.HealthCheckTimeout,
	})
	sessions := session.NewManager(repo)

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, sessions)
	healthHandler := api.NewHealthHandler(repo, client, cfg.Backend.HealthCheckTimeout)
	catalogHandler := api.NewCatalogHandler(cat)
	wizardHandler := api.NewWizardHandler(baseHandler, cat, client)
	reportHandler := api.NewReportHandler(baseHandler)
	streams := loading.NewRegistry()
	loadingHandler := loading.NewHandler(sessions, streams, cfg.LoadingTick, cfg.IsDevelopment(), cfg.AllowedOrigins())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	// Public routes.
	healthHandler.RegisterHealth(r)
	catalogHandler.RegisterRoutes(r)

	// Session-scoped routes.
	r.Group(func(r chi.Router) {
		r.Use(identity.NewResolver(repo, cfg.IsDevelopment()).Identify)
		wizardHandler.RegisterRoutes(r)
		reportHandler.RegisterRoutes(r)
		r.Get("/ws/loading", loadingHandler.ServeHTTP)
	})

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// A submission may hold its request open for the whole backend timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
	srv.RegisterOnShutdown(streams.CloseAll)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	sweeper := session.NewSweeper(repo, cfg.SessionTTL, session.DefaultSweepInterval)
	g.Go(func() error { return sweeper.Run(gctx) })

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
