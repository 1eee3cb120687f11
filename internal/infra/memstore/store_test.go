package memstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/memstore"
)

func TestAdjustBalance_ConcurrentAdjustmentsAllLand(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	err := store.CreateAccount(ctx, &domain.BankAccount{ID: "caixa", Name: "Caixa", CurrentBalance: 100000})
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers * 2)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			store.AdjustBalance(ctx, "caixa", 250)
		}()
		go func() {
			defer wg.Done()
			store.AdjustBalance(ctx, "caixa", -250)
		}()
	}
	wg.Wait()

	a, err := store.GetAccount(ctx, "caixa")
	if err != nil {
		t.Fatalf("failed to fetch account: %v", err)
	}
	if a.CurrentBalance != 100000 {
		t.Errorf("balance: expected 100000 after paired adjustments, got %d", a.CurrentBalance)
	}
}

func TestAdjustBalance_MissingAccount(t *testing.T) {
	store := memstore.New()

	_, err := store.AdjustBalance(context.Background(), "ghost", 100)
	var notFound *domain.ErrAccountNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestApplySettlement_ConcurrentPaymentsNeverOvershoot(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	err := store.CreateCreditSale(ctx, &domain.CreditSale{
		ID: "cs-1", SaleID: "sale-1", TotalDue: 1000, BalanceDue: 1000,
		Status: domain.CreditSaleOpen, DueDate: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to create sale: %v", err)
	}

	// 20 concurrent payments of 100 against 1000 due: exactly 10 can land.
	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var accepted, rejected int

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := store.ApplySettlement(ctx, "cs-1", 100)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
				return
			}
			var overpayment *domain.ErrOverpayment
			if errors.As(err, &overpayment) {
				rejected++
			}
		}()
	}
	wg.Wait()

	if accepted != 10 || rejected != 10 {
		t.Errorf("expected 10 accepted and 10 rejected, got %d/%d", accepted, rejected)
	}

	sale, err := store.GetCreditSale(ctx, "cs-1")
	if err != nil {
		t.Fatalf("failed to fetch sale: %v", err)
	}
	if sale.AmountPaid != 1000 || sale.BalanceDue != 0 {
		t.Errorf("expected exactly paid out (1000/0), got paid %d due %d", sale.AmountPaid, sale.BalanceDue)
	}
	if sale.Status != domain.CreditSalePaid {
		t.Errorf("status: expected paid, got %s", sale.Status)
	}
}

func TestApplySettlement_StatusFollowsBalance(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	err := store.CreateCreditSale(ctx, &domain.CreditSale{
		ID: "cs-1", SaleID: "sale-1", TotalDue: 500, BalanceDue: 500,
		Status: domain.CreditSaleOpen, DueDate: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to create sale: %v", err)
	}

	sale, err := store.ApplySettlement(ctx, "cs-1", 500)
	if err != nil {
		t.Fatalf("settlement failed: %v", err)
	}
	if sale.Status != domain.CreditSalePaid {
		t.Errorf("expected paid at zero balance, got %s", sale.Status)
	}

	sale, err = store.ApplySettlement(ctx, "cs-1", -200)
	if err != nil {
		t.Fatalf("reversal failed: %v", err)
	}
	if sale.Status != domain.CreditSaleOpen {
		t.Errorf("expected open after partial reversal, got %s", sale.Status)
	}
	if sale.BalanceDue != 200 {
		t.Errorf("balance_due: expected 200, got %d", sale.BalanceDue)
	}
}

func TestApplySettlement_BelowZeroRejected(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	err := store.CreateCreditSale(ctx, &domain.CreditSale{
		ID: "cs-1", SaleID: "sale-1", TotalDue: 500, BalanceDue: 500,
		Status: domain.CreditSaleOpen, DueDate: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to create sale: %v", err)
	}

	_, err = store.ApplySettlement(ctx, "cs-1", -100)
	var inconsistency *domain.ErrInconsistency
	if !errors.As(err, &inconsistency) {
		t.Fatalf("expected ErrInconsistency, got %v", err)
	}
}

func TestListPayments_FiltersAndPagination(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	payments := []domain.Payment{
		{ID: "p1", Amount: 100, Kind: domain.MovementRevenue, OccurredAt: base, DestinationAccountID: "caixa"},
		{ID: "p2", Amount: 200, Kind: domain.MovementExpense, OccurredAt: base.AddDate(0, 0, 1), SourceAccountID: "banco"},
		{ID: "p3", Amount: 300, Kind: domain.MovementRevenue, OccurredAt: base.AddDate(0, 0, 2), DestinationAccountID: "banco",
			Link: &domain.PaymentLink{Kind: domain.LinkCreditSale, ID: "cs-1"}},
		{ID: "p4", Amount: 400, Kind: domain.MovementTransfer, OccurredAt: base.AddDate(0, 0, 3), SourceAccountID: "caixa", DestinationAccountID: "banco"},
	}
	for i := range payments {
		if err := store.CreatePayment(ctx, &payments[i]); err != nil {
			t.Fatalf("failed to seed payment: %v", err)
		}
	}

	t.Run("kind filter", func(t *testing.T) {
		got, err := store.ListPayments(ctx, domain.DateRange{}, domain.PaymentFilter{Kind: domain.MovementRevenue}, 0, 0)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 revenue payments, got %d", len(got))
		}
	})

	t.Run("account filter matches either side", func(t *testing.T) {
		got, err := store.ListPayments(ctx, domain.DateRange{}, domain.PaymentFilter{AccountID: "caixa"}, 0, 0)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 payments touching caixa, got %d", len(got))
		}
	})

	t.Run("link type filter", func(t *testing.T) {
		got, err := store.ListPayments(ctx, domain.DateRange{}, domain.PaymentFilter{LinkKind: domain.LinkCreditSale}, 0, 0)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != "p3" {
			t.Fatalf("expected only p3, got %d payments", len(got))
		}
	})

	t.Run("date range is inclusive", func(t *testing.T) {
		rng := domain.DateRange{From: base.AddDate(0, 0, 1), To: base.AddDate(0, 0, 2)}
		got, err := store.ListPayments(ctx, rng, domain.PaymentFilter{}, 0, 0)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 payments within bounds, got %d", len(got))
		}
	})

	t.Run("newest first with pagination", func(t *testing.T) {
		page1, err := store.ListPayments(ctx, domain.DateRange{}, domain.PaymentFilter{}, 1, 3)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(page1) != 3 || page1[0].ID != "p4" {
			t.Fatalf("expected first page [p4 p3 p2], got %d starting with %s", len(page1), page1[0].ID)
		}
		page2, err := store.ListPayments(ctx, domain.DateRange{}, domain.PaymentFilter{}, 2, 3)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(page2) != 1 || page2[0].ID != "p1" {
			t.Fatalf("expected second page [p1], got %d payments", len(page2))
		}
	})
}

func TestStore_CopiesAreIsolated(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	p := &domain.Payment{
		ID: "p1", Amount: 100, Kind: domain.MovementRevenue,
		OccurredAt: time.Now(), DestinationAccountID: "caixa",
		Link: &domain.PaymentLink{Kind: domain.LinkSale, ID: "s1"},
	}
	if err := store.CreatePayment(ctx, p); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.GetPayment(ctx, "p1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	got.Amount = 999
	got.Link.ID = "tampered"

	again, _ := store.GetPayment(ctx, "p1")
	if again.Amount != 100 || again.Link.ID != "s1" {
		t.Errorf("stored payment mutated through a returned copy: %+v", again)
	}
}
