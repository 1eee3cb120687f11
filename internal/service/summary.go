package service

import (
	"context"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var summaryTracer = otel.Tracer("service/summary")

// SummaryService scans the payment ledger over a date range and produces
// aggregate totals per movement kind. Pure read: same ledger contents,
// same output, which makes caller-side caching safe.
type SummaryService struct {
	payments port.PaymentStore
	logger   *zap.Logger
}

// NewSummaryService creates a summary service.
func NewSummaryService(payments port.PaymentStore, logger *zap.Logger) *SummaryService {
	return &SummaryService{payments: payments, logger: logger}
}

// Summarize totals payments with occurred_at inside rng (inclusive on
// both ends), grouped by movement kind. Net balance is revenue minus
// expense; transfers do not change the total cash position, only its
// distribution across accounts, so they are excluded from net.
func (s *SummaryService) Summarize(ctx context.Context, rng domain.DateRange) (*domain.PeriodSummary, error) {
	ctx, span := summaryTracer.Start(ctx, "SummaryService.Summarize")
	defer span.End()

	payments, err := s.payments.ListPayments(ctx, rng, domain.PaymentFilter{}, 0, 0)
	if err != nil {
		return nil, err
	}

	summary := &domain.PeriodSummary{Period: rng}
	for _, p := range payments {
		switch p.Kind {
		case domain.MovementRevenue:
			summary.TotalRevenue += p.Amount
		case domain.MovementExpense:
			summary.TotalExpense += p.Amount
		case domain.MovementTransfer:
			summary.TotalTransfer += p.Amount
		}
		summary.Count++
	}
	summary.NetBalance = summary.TotalRevenue - summary.TotalExpense

	return summary, nil
}
