package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/memstore"
	"github.com/mateusffsc/sapataria-ledger-go/internal/service"

	"go.uber.org/zap"
)

func seedPayment(t *testing.T, store *memstore.Store, id string, kind domain.MovementKind, amount domain.Centavos, occurredAt time.Time) {
	t.Helper()
	err := store.CreatePayment(context.Background(), &domain.Payment{
		ID:                   id,
		Amount:               amount,
		Kind:                 kind,
		OccurredAt:           occurredAt,
		SourceAccountID:      "caixa",
		DestinationAccountID: "banco",
	})
	if err != nil {
		t.Fatalf("failed to seed payment %s: %v", id, err)
	}
}

func TestSummarize_TotalsPerKind(t *testing.T) {
	store := memstore.New()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	seedPayment(t, store, "p1", domain.MovementRevenue, 10000, now)
	seedPayment(t, store, "p2", domain.MovementRevenue, 5000, now.Add(time.Hour))
	seedPayment(t, store, "p3", domain.MovementExpense, 3000, now.Add(2*time.Hour))
	seedPayment(t, store, "p4", domain.MovementTransfer, 20000, now.Add(3*time.Hour))

	svc := service.NewSummaryService(store, zap.NewNop())
	summary, err := svc.Summarize(context.Background(), domain.DateRange{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.TotalRevenue != 15000 {
		t.Errorf("total_revenue: expected 15000, got %d", summary.TotalRevenue)
	}
	if summary.TotalExpense != 3000 {
		t.Errorf("total_expense: expected 3000, got %d", summary.TotalExpense)
	}
	if summary.TotalTransfer != 20000 {
		t.Errorf("total_transfer: expected 20000, got %d", summary.TotalTransfer)
	}
	if summary.NetBalance != 12000 {
		t.Errorf("net_balance: expected revenue-expense=12000 (transfers excluded), got %d", summary.NetBalance)
	}
	if summary.Count != 4 {
		t.Errorf("count: expected 4, got %d", summary.Count)
	}
}

func TestSummarize_BoundsAreInclusive(t *testing.T) {
	store := memstore.New()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	seedPayment(t, store, "before", domain.MovementRevenue, 100, from.Add(-time.Second))
	seedPayment(t, store, "at-from", domain.MovementRevenue, 200, from)
	seedPayment(t, store, "inside", domain.MovementRevenue, 400, from.AddDate(0, 0, 15))
	seedPayment(t, store, "at-to", domain.MovementRevenue, 800, to)
	seedPayment(t, store, "after", domain.MovementRevenue, 1600, to.Add(time.Second))

	svc := service.NewSummaryService(store, zap.NewNop())
	summary, err := svc.Summarize(context.Background(), domain.DateRange{From: from, To: to})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.TotalRevenue != 1400 {
		t.Errorf("total_revenue: expected 1400 (both bounds inclusive), got %d", summary.TotalRevenue)
	}
	if summary.Count != 3 {
		t.Errorf("count: expected 3, got %d", summary.Count)
	}
}

func TestSummarize_ReadOnlyAndRepeatable(t *testing.T) {
	store := memstore.New()
	now := time.Now()
	seedPayment(t, store, "p1", domain.MovementRevenue, 7000, now)
	seedPayment(t, store, "p2", domain.MovementExpense, 2000, now)

	svc := service.NewSummaryService(store, zap.NewNop())

	first, err := svc.Summarize(context.Background(), domain.DateRange{})
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := svc.Summarize(context.Background(), domain.DateRange{})
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if *first != *second {
		t.Errorf("summaries differ between identical calls: %+v vs %+v", first, second)
	}
}

func TestSummarize_EmptyPeriod(t *testing.T) {
	store := memstore.New()
	seedPayment(t, store, "p1", domain.MovementRevenue, 7000, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))

	svc := service.NewSummaryService(store, zap.NewNop())
	summary, err := svc.Summarize(context.Background(), domain.DateRange{
		From: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Count != 0 || summary.TotalRevenue != 0 || summary.NetBalance != 0 {
		t.Errorf("expected all-zero summary, got %+v", summary)
	}
}
