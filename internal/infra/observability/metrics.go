package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the ledger engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	operationDuration     *prometheus.HistogramVec
	paymentsRecorded      *prometheus.CounterVec
	paymentsAmended       prometheus.Counter
	paymentsRemoved       prometheus.Counter
	balanceAdjustments    prometheus.Counter
	overpaymentsRejected  prometheus.Counter
	storeErrors           *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		paymentsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_payments_recorded_total",
				Help: "Total payments recorded, by movement kind.",
			},
			[]string{"movement_kind"},
		),
		paymentsAmended: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_payments_amended_total",
				Help: "Total payments amended (reversal then reapply).",
			},
		),
		paymentsRemoved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_payments_removed_total",
				Help: "Total payments removed (reversal then delete).",
			},
		),
		balanceAdjustments: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_balance_adjustments_total",
				Help: "Total atomic balance adjustments applied to bank accounts.",
			},
		),
		overpaymentsRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_overpayments_rejected_total",
				Help: "Total credit-sale payments rejected for exceeding the total due.",
			},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_store_errors_total",
				Help: "Total errors from the storage backend.",
			},
			[]string{"backend"},
		),
	}
}

// RecordOperationDuration records the duration of a ledger operation.
func (m *Metrics) RecordOperationDuration(operation string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrPaymentRecorded increments the recorded-payment counter for a kind.
func (m *Metrics) IncrPaymentRecorded(kind string) {
	m.paymentsRecorded.WithLabelValues(kind).Inc()
}

// IncrPaymentAmended increments the amended-payment counter.
func (m *Metrics) IncrPaymentAmended() {
	m.paymentsAmended.Inc()
}

// IncrPaymentRemoved increments the removed-payment counter.
func (m *Metrics) IncrPaymentRemoved() {
	m.paymentsRemoved.Inc()
}

// IncrBalanceAdjustment increments the balance-adjustment counter.
func (m *Metrics) IncrBalanceAdjustment() {
	m.balanceAdjustments.Inc()
}

// IncrOverpaymentRejected increments the overpayment-rejection counter.
func (m *Metrics) IncrOverpaymentRejected() {
	m.overpaymentsRejected.Inc()
}

// IncrStoreError increments the store error counter for a backend.
func (m *Metrics) IncrStoreError(backend string) {
	m.storeErrors.WithLabelValues(backend).Inc()
}

// LedgerSnapshot is a point-in-time view of the counters, served by the
// GET /v1/metrics/ledger endpoint for dashboards that don't scrape
// Prometheus.
type LedgerSnapshot struct {
	PaymentsRecorded     int64 `json:"payments_recorded"`
	PaymentsAmended      int64 `json:"payments_amended"`
	PaymentsRemoved      int64 `json:"payments_removed"`
	BalanceAdjustments   int64 `json:"balance_adjustments"`
	OverpaymentsRejected int64 `json:"overpayments_rejected"`
}

// GetLedgerSnapshot gathers current counter values.
// Note: Prometheus counters expose cumulative values.
func (m *Metrics) GetLedgerSnapshot() *LedgerSnapshot {
	recorded := getCounterValue(m.paymentsRecorded, "revenue") +
		getCounterValue(m.paymentsRecorded, "expense") +
		getCounterValue(m.paymentsRecorded, "transfer")

	return &LedgerSnapshot{
		PaymentsRecorded:     int64(recorded),
		PaymentsAmended:      int64(getPlainCounterValue(m.paymentsAmended)),
		PaymentsRemoved:      int64(getPlainCounterValue(m.paymentsRemoved)),
		BalanceAdjustments:   int64(getPlainCounterValue(m.balanceAdjustments)),
		OverpaymentsRejected: int64(getPlainCounterValue(m.overpaymentsRejected)),
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getPlainCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
