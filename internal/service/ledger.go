// Package service provides the business logic layer (use cases):
// the payment ledger, the balance update engine, the credit settlement
// tracker and the period summary aggregator.
package service

import (
	"context"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/observability"
	"github.com/mateusffsc/sapataria-ledger-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerService orchestrates the payment ledger: every record, amend and
// remove flows through here so balance deltas and credit-sale settlement
// are never applied in isolation.
type LedgerService struct {
	accounts   port.AccountStore
	payments   port.PaymentStore
	engine     *BalanceEngine
	settlement *SettlementService
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewLedgerService creates a ledger service.
func NewLedgerService(
	accounts port.AccountStore,
	payments port.PaymentStore,
	engine *BalanceEngine,
	settlement *SettlementService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		accounts:   accounts,
		payments:   payments,
		engine:     engine,
		settlement: settlement,
		metrics:    metrics,
		logger:     logger,
	}
}

// Record validates and persists a payment, applies its balance deltas
// and, if linked to a credit sale, registers the settlement. On any
// failure past the first write the earlier effects are compensated, so
// the payment + balance + settlement triple never half-applies.
func (s *LedgerService) Record(ctx context.Context, draft *domain.PaymentDraft) (*domain.Payment, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Record")
	defer span.End()
	span.SetAttributes(attribute.String("movement_kind", string(draft.Kind)))

	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration("record", time.Since(start)) }()

	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkAccounts(ctx, draft.SourceAccountID, draft.DestinationAccountID); err != nil {
		return nil, err
	}

	now := time.Now()
	occurredAt := draft.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	p := &domain.Payment{
		ID:                   uuid.New().String(),
		Amount:               draft.Amount,
		Kind:                 draft.Kind,
		OccurredAt:           occurredAt,
		SourceAccountID:      draft.SourceAccountID,
		DestinationAccountID: draft.DestinationAccountID,
		PaymentMethodID:      draft.PaymentMethodID,
		Link:                 draft.Link,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.payments.CreatePayment(ctx, p); err != nil {
		s.logger.Error("failed to persist payment", zap.Error(err))
		return nil, err
	}

	if err := s.engine.Apply(ctx, p); err != nil {
		s.discardPayment(ctx, p.ID)
		return nil, err
	}

	if p.Link != nil && p.Link.Kind == domain.LinkCreditSale {
		if _, err := s.settlement.RegisterPayment(ctx, p.Link.ID, p.Amount); err != nil {
			// Roll the balances back before discarding the record.
			if revErr := s.engine.Reverse(ctx, p); revErr != nil {
				s.logger.Error("balance reversal failed after settlement error, manual reconciliation required",
					zap.String("payment_id", p.ID), zap.Error(revErr))
			}
			s.discardPayment(ctx, p.ID)
			return nil, err
		}
	}

	s.metrics.IncrPaymentRecorded(string(p.Kind))
	s.logger.Info("payment recorded",
		zap.String("payment_id", p.ID),
		zap.String("movement_kind", string(p.Kind)),
		zap.String("amount", p.Amount.String()),
	)
	return p, nil
}

// Amend replaces a payment's fields, reversing the old record's effects
// before applying the new ones. Reversal-then-reapply, never a direct
// diff: diffing double-counts as soon as accounts or kinds change.
func (s *LedgerService) Amend(ctx context.Context, paymentID string, draft *domain.PaymentDraft) (*domain.Payment, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Amend")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration("amend", time.Since(start)) }()

	old, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkAccounts(ctx, draft.SourceAccountID, draft.DestinationAccountID); err != nil {
		return nil, err
	}

	occurredAt := draft.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = old.OccurredAt
	}
	amended := &domain.Payment{
		ID:                   old.ID,
		Amount:               draft.Amount,
		Kind:                 draft.Kind,
		OccurredAt:           occurredAt,
		SourceAccountID:      draft.SourceAccountID,
		DestinationAccountID: draft.DestinationAccountID,
		PaymentMethodID:      draft.PaymentMethodID,
		Link:                 draft.Link,
		CreatedAt:            old.CreatedAt,
		UpdatedAt:            time.Now(),
	}

	// 1. Undo the old record's settlement, then its balance deltas.
	if err := s.reverseSettlement(ctx, old); err != nil {
		return nil, err
	}
	if err := s.engine.Reverse(ctx, old); err != nil {
		s.restoreSettlement(ctx, old)
		return nil, err
	}

	// 2. Apply the new record's balance deltas, then its settlement.
	if err := s.engine.Apply(ctx, amended); err != nil {
		s.restoreBalances(ctx, old)
		s.restoreSettlement(ctx, old)
		return nil, err
	}
	if amended.Link != nil && amended.Link.Kind == domain.LinkCreditSale {
		if _, err := s.settlement.RegisterPayment(ctx, amended.Link.ID, amended.Amount); err != nil {
			if revErr := s.engine.Reverse(ctx, amended); revErr != nil {
				s.logger.Error("reversal of amended payment failed, manual reconciliation required",
					zap.String("payment_id", amended.ID), zap.Error(revErr))
			}
			s.restoreBalances(ctx, old)
			s.restoreSettlement(ctx, old)
			return nil, err
		}
	}

	// 3. Persist the new field values.
	if err := s.payments.UpdatePayment(ctx, amended); err != nil {
		s.logger.Error("failed to persist amended payment, undoing applied effects",
			zap.String("payment_id", amended.ID), zap.Error(err))
		if amended.Link != nil && amended.Link.Kind == domain.LinkCreditSale {
			if _, revErr := s.settlement.ReversePayment(ctx, amended.Link.ID, amended.Amount); revErr != nil {
				s.logger.Error("settlement reversal failed, manual reconciliation required", zap.Error(revErr))
			}
		}
		if revErr := s.engine.Reverse(ctx, amended); revErr != nil {
			s.logger.Error("balance reversal failed, manual reconciliation required", zap.Error(revErr))
		}
		s.restoreBalances(ctx, old)
		s.restoreSettlement(ctx, old)
		return nil, err
	}

	s.metrics.IncrPaymentAmended()
	s.logger.Info("payment amended",
		zap.String("payment_id", amended.ID),
		zap.String("old_amount", old.Amount.String()),
		zap.String("new_amount", amended.Amount.String()),
	)
	return amended, nil
}

// Remove reverses a payment's effects and deletes the record.
func (s *LedgerService) Remove(ctx context.Context, paymentID string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Remove")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration("remove", time.Since(start)) }()

	old, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	if err := s.reverseSettlement(ctx, old); err != nil {
		return err
	}
	if err := s.engine.Reverse(ctx, old); err != nil {
		s.restoreSettlement(ctx, old)
		return err
	}
	if err := s.payments.DeletePayment(ctx, paymentID); err != nil {
		s.restoreBalances(ctx, old)
		s.restoreSettlement(ctx, old)
		return err
	}

	s.metrics.IncrPaymentRemoved()
	s.logger.Info("payment removed",
		zap.String("payment_id", old.ID),
		zap.String("movement_kind", string(old.Kind)),
		zap.String("amount", old.Amount.String()),
	)
	return nil
}

// GetByID returns a single payment. Read-only.
func (s *LedgerService) GetByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.GetByID")
	defer span.End()

	return s.payments.GetPayment(ctx, paymentID)
}

// List returns payments in the range matching the filter. Read-only.
func (s *LedgerService) List(ctx context.Context, rng domain.DateRange, filter domain.PaymentFilter, page, pageSize int) ([]domain.Payment, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.List")
	defer span.End()

	return s.payments.ListPayments(ctx, rng, filter, page, pageSize)
}

// checkAccounts verifies every referenced account exists before anything
// is written. Lookups run concurrently; a missing account fails the
// whole operation with no mutation.
func (s *LedgerService) checkAccounts(ctx context.Context, accountIDs ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range accountIDs {
		if id == "" {
			continue
		}
		id := id
		g.Go(func() error {
			if _, err := s.accounts.GetAccount(gctx, id); err != nil {
				return &domain.ErrAccountNotFound{AccountID: id}
			}
			return nil
		})
	}
	return g.Wait()
}

// reverseSettlement undoes the settlement effect of a linked payment.
func (s *LedgerService) reverseSettlement(ctx context.Context, p *domain.Payment) error {
	if p.Link == nil || p.Link.Kind != domain.LinkCreditSale {
		return nil
	}
	_, err := s.settlement.ReversePayment(ctx, p.Link.ID, p.Amount)
	return err
}

// restoreSettlement re-registers a settlement that was reversed during a
// failed amend/remove, putting the credit sale back where it was.
func (s *LedgerService) restoreSettlement(ctx context.Context, p *domain.Payment) {
	if p.Link == nil || p.Link.Kind != domain.LinkCreditSale {
		return
	}
	if _, err := s.settlement.RegisterPayment(ctx, p.Link.ID, p.Amount); err != nil {
		s.logger.Error("settlement restore failed, manual reconciliation required",
			zap.String("payment_id", p.ID),
			zap.String("credit_sale_id", p.Link.ID),
			zap.Error(err),
		)
	}
}

// restoreBalances re-applies the balance deltas of a payment that was
// reversed during a failed amend/remove.
func (s *LedgerService) restoreBalances(ctx context.Context, p *domain.Payment) {
	if err := s.engine.Apply(ctx, p); err != nil {
		s.logger.Error("balance restore failed, manual reconciliation required",
			zap.String("payment_id", p.ID),
			zap.Error(err),
		)
	}
}

// discardPayment deletes a payment record written during a failed
// Record call.
func (s *LedgerService) discardPayment(ctx context.Context, paymentID string) {
	if err := s.payments.DeletePayment(ctx, paymentID); err != nil {
		s.logger.Error("failed to discard payment after aborted record, manual reconciliation required",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
	}
}
