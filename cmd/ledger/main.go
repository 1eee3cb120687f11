package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/config"
	"github.com/mateusffsc/sapataria-ledger-go/internal/handler"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/memstore"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/observability"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/postgres"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/resilience"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/supabase"
	"github.com/mateusffsc/sapataria-ledger-go/internal/port"
	"github.com/mateusffsc/sapataria-ledger-go/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "sapataria-ledger")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Storage backend ---
	var store port.Store
	var probe interface {
		Ping(ctx context.Context) error
	}

	switch {
	case cfg.DatabaseURL != "":
		logger.Info("using Postgres as storage backend")
		if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		pg, err := postgres.Open(context.Background(), cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("failed to connect to Postgres", zap.Error(err))
		}
		defer pg.Close()
		store = pg
		probe = pg

	case cfg.SupabaseURL != "":
		logger.Info("using Supabase as storage backend",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		sb := supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilience.Config{
				MaxRetries:     cfg.MaxRetries,
				InitialBackoff: cfg.InitialBackoff,
			},
			metrics,
			logger,
		)
		store = sb
		probe = sb

	default:
		logger.Warn("no DATABASE_URL or SUPABASE_URL set, using in-memory store (data is not persisted)")
		store = memstore.New()
	}

	// --- Services ---
	engine := service.NewBalanceEngine(store, metrics, logger)
	settlementSvc := service.NewSettlementService(store, metrics, logger)
	svcs := handler.Services{
		Ledger:     service.NewLedgerService(store, store, engine, settlementSvc, metrics, logger),
		Accounts:   service.NewAccountService(store, logger),
		Settlement: settlementSvc,
		Summary:    service.NewSummaryService(store, logger),
	}

	// --- Router ---
	router := handler.NewRouter(svcs, probe, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
