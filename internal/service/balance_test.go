package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/memstore"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/observability"
	"github.com/mateusffsc/sapataria-ledger-go/internal/port"
	"github.com/mateusffsc/sapataria-ledger-go/internal/service"

	"go.uber.org/zap"
)

// --- Helpers ---

func seedAccount(t *testing.T, store port.AccountStore, id string, balance domain.Centavos) {
	t.Helper()
	err := store.CreateAccount(context.Background(), &domain.BankAccount{
		ID:             id,
		Name:           id,
		OpeningBalance: balance,
		CurrentBalance: balance,
	})
	if err != nil {
		t.Fatalf("failed to seed account %s: %v", id, err)
	}
}

func accountBalance(t *testing.T, store port.AccountStore, id string) domain.Centavos {
	t.Helper()
	a, err := store.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to fetch account %s: %v", id, err)
	}
	return a.CurrentBalance
}

// failingAccounts wraps a real store and fails AdjustBalance for one
// account id, for exercising the rollback path.
type failingAccounts struct {
	port.AccountStore
	failID string
}

func (f *failingAccounts) AdjustBalance(ctx context.Context, accountID string, delta domain.Centavos) (*domain.BankAccount, error) {
	if accountID == f.failID {
		return nil, errors.New("storage unavailable")
	}
	return f.AccountStore.AdjustBalance(ctx, accountID, delta)
}

// --- Tests ---

func TestBalanceEngine_ApplyByMovementKind(t *testing.T) {
	tests := []struct {
		name      string
		payment   domain.Payment
		wantCaixa domain.Centavos
		wantBanco domain.Centavos
	}{
		{
			name: "revenue credits destination",
			payment: domain.Payment{
				ID: "p1", Amount: 5000, Kind: domain.MovementRevenue,
				DestinationAccountID: "caixa",
			},
			wantCaixa: 15000, wantBanco: 20000,
		},
		{
			name: "expense debits source",
			payment: domain.Payment{
				ID: "p2", Amount: 3000, Kind: domain.MovementExpense,
				SourceAccountID: "banco",
			},
			wantCaixa: 10000, wantBanco: 17000,
		},
		{
			name: "transfer debits source and credits destination",
			payment: domain.Payment{
				ID: "p3", Amount: 2500, Kind: domain.MovementTransfer,
				SourceAccountID: "caixa", DestinationAccountID: "banco",
			},
			wantCaixa: 7500, wantBanco: 22500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			seedAccount(t, store, "caixa", 10000)
			seedAccount(t, store, "banco", 20000)
			engine := service.NewBalanceEngine(store, observability.NewMetrics(), zap.NewNop())

			if err := engine.Apply(context.Background(), &tt.payment); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if got := accountBalance(t, store, "caixa"); got != tt.wantCaixa {
				t.Errorf("caixa balance: expected %d, got %d", tt.wantCaixa, got)
			}
			if got := accountBalance(t, store, "banco"); got != tt.wantBanco {
				t.Errorf("banco balance: expected %d, got %d", tt.wantBanco, got)
			}
		})
	}
}

func TestBalanceEngine_ApplyThenReverseIsNoop(t *testing.T) {
	store := memstore.New()
	seedAccount(t, store, "caixa", 10000)
	seedAccount(t, store, "banco", 20000)
	engine := service.NewBalanceEngine(store, observability.NewMetrics(), zap.NewNop())

	p := &domain.Payment{
		ID: "p1", Amount: 4200, Kind: domain.MovementTransfer,
		SourceAccountID: "caixa", DestinationAccountID: "banco",
	}

	if err := engine.Apply(context.Background(), p); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := engine.Reverse(context.Background(), p); err != nil {
		t.Fatalf("reverse failed: %v", err)
	}

	if got := accountBalance(t, store, "caixa"); got != 10000 {
		t.Errorf("caixa balance: expected 10000 after apply+reverse, got %d", got)
	}
	if got := accountBalance(t, store, "banco"); got != 20000 {
		t.Errorf("banco balance: expected 20000 after apply+reverse, got %d", got)
	}
}

func TestBalanceEngine_MissingAccount(t *testing.T) {
	store := memstore.New()
	engine := service.NewBalanceEngine(store, observability.NewMetrics(), zap.NewNop())

	p := &domain.Payment{
		ID: "p1", Amount: 1000, Kind: domain.MovementExpense,
		SourceAccountID: "ghost",
	}

	err := engine.Apply(context.Background(), p)
	var notFound *domain.ErrAccountNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestBalanceEngine_TransferRollsBackOnPartialFailure(t *testing.T) {
	store := memstore.New()
	seedAccount(t, store, "caixa", 10000)
	seedAccount(t, store, "banco", 20000)

	// The source debit lands, then the destination credit fails.
	failing := &failingAccounts{AccountStore: store, failID: "banco"}
	engine := service.NewBalanceEngine(failing, observability.NewMetrics(), zap.NewNop())

	p := &domain.Payment{
		ID: "p1", Amount: 5000, Kind: domain.MovementTransfer,
		SourceAccountID: "caixa", DestinationAccountID: "banco",
	}

	if err := engine.Apply(context.Background(), p); err == nil {
		t.Fatal("expected error, got nil")
	}

	if got := accountBalance(t, store, "caixa"); got != 10000 {
		t.Errorf("caixa balance: expected debit rolled back to 10000, got %d", got)
	}
	if got := accountBalance(t, store, "banco"); got != 20000 {
		t.Errorf("banco balance: expected unchanged 20000, got %d", got)
	}
}
