package service

import (
	"context"
	"errors"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/observability"
	"github.com/mateusffsc/sapataria-ledger-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var settlementTracer = otel.Tracer("service/settlement")

// SettlementService maintains, per credit sale, the relationship between
// amount owed, amount paid and remaining balance.
type SettlementService struct {
	sales   port.CreditSaleStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSettlementService creates a settlement service over the given store.
func NewSettlementService(sales port.CreditSaleStore, metrics *observability.Metrics, logger *zap.Logger) *SettlementService {
	return &SettlementService{sales: sales, metrics: metrics, logger: logger}
}

// Create registers a new crediário alongside its originating sale.
// The total due is fixed at creation and the sale starts fully open.
func (s *SettlementService) Create(ctx context.Context, draft *domain.CreditSaleDraft) (*domain.CreditSale, error) {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.Create")
	defer span.End()

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	sale := &domain.CreditSale{
		ID:         uuid.New().String(),
		SaleID:     draft.SaleID,
		ClientID:   draft.ClientID,
		TotalDue:   draft.TotalDue,
		AmountPaid: 0,
		BalanceDue: draft.TotalDue,
		DueDate:    draft.DueDate,
		Status:     domain.CreditSaleOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.sales.CreateCreditSale(ctx, sale); err != nil {
		return nil, err
	}

	s.logger.Info("credit sale created",
		zap.String("credit_sale_id", sale.ID),
		zap.String("sale_id", sale.SaleID),
		zap.String("total_due", sale.TotalDue.String()),
	)
	return sale, nil
}

// RegisterPayment increases amount_paid by amount. An amount that would
// drive amount_paid above the total due is rejected with
// *domain.ErrOverpayment, leaving the sale untouched.
func (s *SettlementService) RegisterPayment(ctx context.Context, saleID string, amount domain.Centavos) (*domain.CreditSale, error) {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.RegisterPayment")
	defer span.End()
	span.SetAttributes(attribute.String("credit_sale.id", saleID))

	if amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	sale, err := s.sales.ApplySettlement(ctx, saleID, amount)
	if err != nil {
		var overpayment *domain.ErrOverpayment
		if errors.As(err, &overpayment) {
			s.metrics.IncrOverpaymentRejected()
		}
		return nil, err
	}

	s.logger.Info("credit sale payment registered",
		zap.String("credit_sale_id", sale.ID),
		zap.String("amount", amount.String()),
		zap.String("balance_due", sale.BalanceDue.String()),
		zap.String("status", string(sale.Status)),
	)
	return sale, nil
}

// ReversePayment is the inverse of RegisterPayment, used when a linked
// payment is amended or deleted. If the sale had been paid and the
// balance becomes positive again, the stored status reverts to open.
func (s *SettlementService) ReversePayment(ctx context.Context, saleID string, amount domain.Centavos) (*domain.CreditSale, error) {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.ReversePayment")
	defer span.End()
	span.SetAttributes(attribute.String("credit_sale.id", saleID))

	if amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	sale, err := s.sales.ApplySettlement(ctx, saleID, -amount)
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit sale payment reversed",
		zap.String("credit_sale_id", sale.ID),
		zap.String("amount", amount.String()),
		zap.String("balance_due", sale.BalanceDue.String()),
	)
	return sale, nil
}

// Get returns a credit sale by id.
func (s *SettlementService) Get(ctx context.Context, saleID string) (*domain.CreditSale, error) {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.Get")
	defer span.End()

	return s.sales.GetCreditSale(ctx, saleID)
}

// List returns credit sales, optionally filtered by effective status at
// the given instant. The overdue determination happens here, at read
// time; the stored status column only ever holds open or paid.
func (s *SettlementService) List(ctx context.Context, status domain.CreditSaleStatus, now time.Time) ([]domain.CreditSale, error) {
	ctx, span := settlementTracer.Start(ctx, "SettlementService.List")
	defer span.End()

	sales, err := s.sales.ListCreditSales(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return sales, nil
	}

	filtered := make([]domain.CreditSale, 0, len(sales))
	for _, sale := range sales {
		if sale.EffectiveStatus(now) == status {
			filtered = append(filtered, sale)
		}
	}
	return filtered, nil
}
