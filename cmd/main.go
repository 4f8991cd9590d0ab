// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Shivanand-hulikatti/participant-registry/internal/config"
	"github.com/Shivanand-hulikatti/participant-registry/internal/database"
	"github.com/Shivanand-hulikatti/participant-registry/internal/handler"
	"github.com/Shivanand-hulikatti/participant-registry/internal/logger"
	"github.com/Shivanand-hulikatti/participant-registry/internal/metrics"
	"github.com/Shivanand-hulikatti/participant-registry/internal/repository"
	"github.com/Shivanand-hulikatti/participant-registry/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Storage ────────────────────────────────────────────────────────
	var (
		store service.ParticipantStore
		ready handler.Pinger
	)
	switch cfg.Store {
	case config.StoreMemory:
		store = repository.NewMemoryRepository()
		log.Warn("using in-memory store; data is lost on exit")
	default:
		mgr := database.NewManager(cfg.DB.DSN(),
			database.WithRetry(cfg.DB.ConnectAttempts, cfg.DB.RetryDelay),
			database.WithLogger(log),
		)
		if err := mgr.Connect(ctx); err != nil {
			return err
		}
		defer func() {
			mgr.Close()
			log.Info("database connection closed")
		}()
		log.Info("connected to PostgreSQL")
		store = repository.NewParticipantRepository(mgr)
		ready = mgr
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := service.NewParticipantService(store,
		service.WithMaxPageSize(cfg.MaxPageSize),
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	if cfg.SeedDemo {
		if err := svc.SeedDemo(ctx); err != nil {
			return err
		}
	}

	router := handler.NewRouter(handler.NewParticipantHandler(svc, log), handler.RouterConfig{
		Logger:         log,
		Metrics:        m,
		AllowedOrigins: cfg.AllowedOrigins,
		Ready:          ready,
	})

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
