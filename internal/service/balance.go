package service

import (
	"context"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/observability"
	"github.com/mateusffsc/sapataria-ledger-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var balanceTracer = otel.Tracer("service/balance")

// BalanceEngine is the sole authority translating a payment into signed
// changes against bank account balances. Nothing else writes
// current_balance.
type BalanceEngine struct {
	accounts port.AccountStore
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewBalanceEngine creates a balance engine over the given account store.
func NewBalanceEngine(accounts port.AccountStore, metrics *observability.Metrics, logger *zap.Logger) *BalanceEngine {
	return &BalanceEngine{accounts: accounts, metrics: metrics, logger: logger}
}

// accountDelta is one signed balance change implied by a payment.
type accountDelta struct {
	accountID string
	delta     domain.Centavos
}

// deltasFor translates a payment into its balance deltas:
// revenue credits the destination, expense debits the source, transfer
// debits the source and credits the destination. An account reference
// missing for a role the kind does not require is skipped.
func deltasFor(p *domain.Payment) []accountDelta {
	var deltas []accountDelta
	switch p.Kind {
	case domain.MovementRevenue:
		if p.DestinationAccountID != "" {
			deltas = append(deltas, accountDelta{p.DestinationAccountID, p.Amount})
		}
	case domain.MovementExpense:
		if p.SourceAccountID != "" {
			deltas = append(deltas, accountDelta{p.SourceAccountID, -p.Amount})
		}
	case domain.MovementTransfer:
		if p.SourceAccountID != "" {
			deltas = append(deltas, accountDelta{p.SourceAccountID, -p.Amount})
		}
		if p.DestinationAccountID != "" {
			deltas = append(deltas, accountDelta{p.DestinationAccountID, p.Amount})
		}
	}
	return deltas
}

// Apply mutates the balances of every account the payment touches.
func (e *BalanceEngine) Apply(ctx context.Context, p *domain.Payment) error {
	ctx, span := balanceTracer.Start(ctx, "BalanceEngine.Apply")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", p.ID))

	return e.shift(ctx, p, 1)
}

// Reverse applies the inverse deltas of a previously applied payment.
// Apply followed by Reverse of the same payment is a no-op on every
// touched account.
func (e *BalanceEngine) Reverse(ctx context.Context, p *domain.Payment) error {
	ctx, span := balanceTracer.Start(ctx, "BalanceEngine.Reverse")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", p.ID))

	return e.shift(ctx, p, -1)
}

// shift applies sign*delta for every account the payment touches. The
// per-account increment is atomic at the store; if one leg fails the
// legs already applied are rolled back so a transfer never half-lands.
func (e *BalanceEngine) shift(ctx context.Context, p *domain.Payment, sign domain.Centavos) error {
	deltas := deltasFor(p)
	applied := make([]accountDelta, 0, len(deltas))

	for _, d := range deltas {
		if _, err := e.accounts.AdjustBalance(ctx, d.accountID, sign*d.delta); err != nil {
			e.rollback(ctx, p, applied, sign)
			return err
		}
		applied = append(applied, d)
		e.metrics.IncrBalanceAdjustment()
	}
	return nil
}

func (e *BalanceEngine) rollback(ctx context.Context, p *domain.Payment, applied []accountDelta, sign domain.Centavos) {
	for i := len(applied) - 1; i >= 0; i-- {
		d := applied[i]
		if _, err := e.accounts.AdjustBalance(ctx, d.accountID, -sign*d.delta); err != nil {
			// A failed rollback leaves balance drift; this must surface
			// loudly for manual reconciliation.
			e.logger.Error("balance rollback failed, manual reconciliation required",
				zap.String("payment_id", p.ID),
				zap.String("account_id", d.accountID),
				zap.Int64("delta", int64(-sign*d.delta)),
				zap.Error(err),
			)
		}
	}
}
