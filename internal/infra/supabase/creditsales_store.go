package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// supabaseCreditSale maps the credit_sales table columns.
type supabaseCreditSale struct {
	ID         string    `json:"id"`
	SaleID     string    `json:"sale_id"`
	ClientID   string    `json:"client_id"`
	TotalDue   int64     `json:"total_amount_due"`
	AmountPaid int64     `json:"amount_paid"`
	BalanceDue int64     `json:"balance_due"`
	DueDate    time.Time `json:"due_date"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s supabaseCreditSale) toDomain() *domain.CreditSale {
	return &domain.CreditSale{
		ID:         s.ID,
		SaleID:     s.SaleID,
		ClientID:   s.ClientID,
		TotalDue:   domain.Centavos(s.TotalDue),
		AmountPaid: domain.Centavos(s.AmountPaid),
		BalanceDue: domain.Centavos(s.BalanceDue),
		DueDate:    s.DueDate,
		Status:     domain.CreditSaleStatus(s.Status),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// CreateCreditSale inserts a credit sale row.
func (c *Client) CreateCreditSale(ctx context.Context, sale *domain.CreditSale) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCreditSale")
	defer span.End()
	span.SetAttributes(attribute.String("credit_sale.id", sale.ID))

	payload, err := json.Marshal(supabaseCreditSale{
		ID:         sale.ID,
		SaleID:     sale.SaleID,
		ClientID:   sale.ClientID,
		TotalDue:   int64(sale.TotalDue),
		AmountPaid: int64(sale.AmountPaid),
		BalanceDue: int64(sale.BalanceDue),
		DueDate:    sale.DueDate,
		Status:     string(sale.Status),
		CreatedAt:  sale.CreatedAt,
		UpdatedAt:  sale.UpdatedAt,
	})
	if err != nil {
		return err
	}

	if _, err := c.doRequest(ctx, http.MethodPost, "credit_sales", payload); err != nil {
		return &domain.ErrExternalService{Service: "supabase/credit_sales", Err: err}
	}
	return nil
}

// GetCreditSale fetches one credit sale by id.
func (c *Client) GetCreditSale(ctx context.Context, saleID string) (*domain.CreditSale, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCreditSale")
	defer span.End()
	span.SetAttributes(attribute.String("credit_sale.id", saleID))

	var sale *domain.CreditSale

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("credit_sales?id=eq.%s&limit=1", url.QueryEscape(saleID))
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			var rows []supabaseCreditSale
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode credit sale: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "credit_sale", ID: saleID}
			}

			sale = rows[0].toDomain()
			return nil
		})
	})

	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nil, nf
		}
		return nil, &domain.ErrExternalService{Service: "supabase/credit_sales", Err: err}
	}

	return sale, nil
}

// ListCreditSales fetches all credit sales ordered by due date.
func (c *Client) ListCreditSales(ctx context.Context) ([]domain.CreditSale, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCreditSales")
	defer span.End()

	var sales []domain.CreditSale

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, "credit_sales?order=due_date.asc", nil)
			if err != nil {
				return err
			}

			var rows []supabaseCreditSale
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode credit sales: %w", err)
			}

			sales = make([]domain.CreditSale, 0, len(rows))
			for _, r := range rows {
				sales = append(sales, *r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/credit_sales", Err: err}
	}

	return sales, nil
}

// ApplySettlement calls the apply_settlement Postgres function, which
// increments amount_paid under the bounds check in a single statement.
// The function raises settlement_overpayment or settlement_below_zero
// when the delta would leave the invariant; those surface here as
// typed domain errors. Not retried: a timed-out call may still have
// committed.
func (c *Client) ApplySettlement(ctx context.Context, saleID string, delta domain.Centavos) (*domain.CreditSale, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ApplySettlement")
	defer span.End()
	span.SetAttributes(
		attribute.String("credit_sale.id", saleID),
		attribute.Int64("delta", int64(delta)),
	)

	payload, err := json.Marshal(map[string]any{
		"p_sale_id": saleID,
		"p_delta":   int64(delta),
	})
	if err != nil {
		return nil, err
	}

	body, err := c.doRPC(ctx, "apply_settlement", payload)
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			switch {
			case strings.Contains(reqErr.Body, "credit_sale_not_found"):
				return nil, &domain.ErrNotFound{Resource: "credit_sale", ID: saleID}
			case strings.Contains(reqErr.Body, "settlement_overpayment"):
				current, getErr := c.GetCreditSale(ctx, saleID)
				if getErr != nil {
					return nil, getErr
				}
				return nil, &domain.ErrOverpayment{
					SaleID:     saleID,
					AmountPaid: current.AmountPaid,
					Attempted:  delta,
					TotalDue:   current.TotalDue,
				}
			case strings.Contains(reqErr.Body, "settlement_below_zero"):
				return nil, &domain.ErrInconsistency{
					Resource: "credit_sale",
					ID:       saleID,
					Detail:   "reversal would drop amount_paid below zero",
				}
			}
		}
		return nil, &domain.ErrExternalService{Service: "supabase/credit_sales", Err: err}
	}

	var row supabaseCreditSale
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("failed to decode settled credit sale: %w", err)
	}
	return row.toDomain(), nil
}
