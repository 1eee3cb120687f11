package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/observability"
	"github.com/mateusffsc/sapataria-ledger-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Period summary — GET /v1/summary
// ============================================================

func summaryHandler(svc *service.SummaryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/summary")
		defer span.End()

		rng, err := parseDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		summary, err := svc.Summarize(ctx, rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}

// ============================================================
// Ledger metrics snapshot — GET /v1/metrics/ledger
// ============================================================

func ledgerMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/ledger")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetLedgerSnapshot())
	}
}

// ============================================================
// Operational endpoints
// ============================================================

// pinger is what healthz needs from a storage backend. The in-memory
// store has no Ping; nil means "always healthy".
type pinger interface {
	Ping(ctx context.Context) error
}

func healthzHandler(store pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				logger.Warn("healthz: storage unreachable", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
