package handler

import (
	"net/http"

	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/observability"
	"github.com/mateusffsc/sapataria-ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router serves.
type Services struct {
	Ledger     *service.LedgerService
	Accounts   *service.AccountService
	Settlement *service.SettlementService
	Summary    *service.SummaryService
}

// NewRouter creates the HTTP router with all routes and middleware.
// store may be nil when the backend has no health probe (in-memory).
func NewRouter(svcs Services, store pinger, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Payments (the ledger)
		r.Post("/payments", createPaymentHandler(svcs.Ledger, logger))
		r.Get("/payments", listPaymentsHandler(svcs.Ledger, logger))
		r.Get("/payments/{paymentId}", getPaymentHandler(svcs.Ledger, logger))
		r.Put("/payments/{paymentId}", updatePaymentHandler(svcs.Ledger, logger))
		r.Delete("/payments/{paymentId}", deletePaymentHandler(svcs.Ledger, logger))

		// Period summary
		r.Get("/summary", summaryHandler(svcs.Summary, logger))

		// Metrics snapshot
		r.Get("/metrics/ledger", ledgerMetricsHandler(metrics, logger))

		// Bank accounts
		r.Post("/accounts", createAccountHandler(svcs.Accounts, logger))
		r.Get("/accounts", listAccountsHandler(svcs.Accounts, logger))
		r.Get("/accounts/{accountId}", getAccountHandler(svcs.Accounts, logger))
		r.Get("/accounts/{accountId}/balance", getBalanceHandler(svcs.Accounts, logger))

		// Credit sales (crediário)
		r.Post("/credit-sales", createCreditSaleHandler(svcs.Settlement, logger))
		r.Get("/credit-sales", listCreditSalesHandler(svcs.Settlement, logger))
		r.Get("/credit-sales/{saleId}", getCreditSaleHandler(svcs.Settlement, logger))
		r.Post("/credit-sales/{saleId}/payments", collectCreditSaleHandler(svcs.Ledger, svcs.Settlement, logger))
	})

	return r
}
