package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// supabasePayment maps the payments table columns. Link columns are
// nullable; both are set or neither is.
type supabasePayment struct {
	ID                   string    `json:"id"`
	Amount               int64     `json:"amount"`
	MovementKind         string    `json:"movement_kind"`
	OccurredAt           time.Time `json:"occurred_at"`
	SourceAccountID      *string   `json:"source_account_id"`
	DestinationAccountID *string   `json:"destination_account_id"`
	PaymentMethodID      *string   `json:"payment_method_id"`
	LinkType             *string   `json:"link_type"`
	LinkID               *string   `json:"link_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (p supabasePayment) toDomain() *domain.Payment {
	out := &domain.Payment{
		ID:         p.ID,
		Amount:     domain.Centavos(p.Amount),
		Kind:       domain.MovementKind(p.MovementKind),
		OccurredAt: p.OccurredAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.SourceAccountID != nil {
		out.SourceAccountID = *p.SourceAccountID
	}
	if p.DestinationAccountID != nil {
		out.DestinationAccountID = *p.DestinationAccountID
	}
	if p.PaymentMethodID != nil {
		out.PaymentMethodID = *p.PaymentMethodID
	}
	if p.LinkType != nil && p.LinkID != nil {
		out.Link = &domain.PaymentLink{Kind: domain.LinkKind(*p.LinkType), ID: *p.LinkID}
	}
	return out
}

func fromDomainPayment(p *domain.Payment) supabasePayment {
	row := supabasePayment{
		ID:           p.ID,
		Amount:       int64(p.Amount),
		MovementKind: string(p.Kind),
		OccurredAt:   p.OccurredAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.SourceAccountID != "" {
		row.SourceAccountID = &p.SourceAccountID
	}
	if p.DestinationAccountID != "" {
		row.DestinationAccountID = &p.DestinationAccountID
	}
	if p.PaymentMethodID != "" {
		row.PaymentMethodID = &p.PaymentMethodID
	}
	if p.Link != nil {
		kind := string(p.Link.Kind)
		row.LinkType = &kind
		row.LinkID = &p.Link.ID
	}
	return row
}

// CreatePayment inserts a payment row.
func (c *Client) CreatePayment(ctx context.Context, p *domain.Payment) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", p.ID))

	payload, err := json.Marshal(fromDomainPayment(p))
	if err != nil {
		return err
	}

	if _, err := c.doRequest(ctx, http.MethodPost, "payments", payload); err != nil {
		return &domain.ErrExternalService{Service: "supabase/payments", Err: err}
	}
	return nil
}

// GetPayment fetches one payment by id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	var payment *domain.Payment

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("payments?id=eq.%s&limit=1", url.QueryEscape(paymentID))
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			var rows []supabasePayment
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode payment: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "payment", ID: paymentID}
			}

			payment = rows[0].toDomain()
			return nil
		})
	})

	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nil, nf
		}
		return nil, &domain.ErrExternalService{Service: "supabase/payments", Err: err}
	}

	return payment, nil
}

// UpdatePayment replaces the mutable columns of a payment row.
func (c *Client) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", p.ID))

	payload, err := json.Marshal(fromDomainPayment(p))
	if err != nil {
		return err
	}

	path := fmt.Sprintf("payments?id=eq.%s", url.QueryEscape(p.ID))
	body, err := c.doRequest(ctx, http.MethodPatch, path, payload)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/payments", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return &domain.ErrNotFound{Resource: "payment", ID: p.ID}
	}
	return nil
}

// DeletePayment removes a payment row.
func (c *Client) DeletePayment(ctx context.Context, paymentID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeletePayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	path := fmt.Sprintf("payments?id=eq.%s", url.QueryEscape(paymentID))
	body, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/payments", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return &domain.ErrNotFound{Resource: "payment", ID: paymentID}
	}
	return nil
}

// ListPayments fetches payments matching the range and filter, newest
// first. PostgREST does the filtering and pagination server-side.
func (c *Client) ListPayments(ctx context.Context, rng domain.DateRange, filter domain.PaymentFilter, page, pageSize int) ([]domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPayments")
	defer span.End()

	params := url.Values{}
	params.Set("order", "occurred_at.desc")
	if !rng.From.IsZero() {
		params.Add("occurred_at", "gte."+rng.From.Format(time.RFC3339))
	}
	if !rng.To.IsZero() {
		params.Add("occurred_at", "lte."+rng.To.Format(time.RFC3339))
	}
	if filter.Kind != "" {
		params.Set("movement_kind", "eq."+string(filter.Kind))
	}
	if filter.AccountID != "" {
		params.Set("or", fmt.Sprintf("(source_account_id.eq.%s,destination_account_id.eq.%s)", filter.AccountID, filter.AccountID))
	}
	if filter.LinkKind != "" {
		params.Set("link_type", "eq."+string(filter.LinkKind))
	}
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		params.Set("limit", fmt.Sprintf("%d", pageSize))
		params.Set("offset", fmt.Sprintf("%d", (page-1)*pageSize))
	}

	var payments []domain.Payment

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, "payments?"+params.Encode(), nil)
			if err != nil {
				return err
			}

			var rows []supabasePayment
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode payments: %w", err)
			}

			payments = make([]domain.Payment, 0, len(rows))
			for _, r := range rows {
				payments = append(payments, *r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/payments", Err: err}
	}

	return payments, nil
}
