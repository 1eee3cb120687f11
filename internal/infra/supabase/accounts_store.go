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

// supabaseAccount maps the bank_accounts table columns.
type supabaseAccount struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OpeningBalance int64     `json:"opening_balance"`
	CurrentBalance int64     `json:"current_balance"`
	CreatedAt      time.Time `json:"created_at"`
}

func (a supabaseAccount) toDomain() *domain.BankAccount {
	return &domain.BankAccount{
		ID:             a.ID,
		Name:           a.Name,
		OpeningBalance: domain.Centavos(a.OpeningBalance),
		CurrentBalance: domain.Centavos(a.CurrentBalance),
		CreatedAt:      a.CreatedAt,
	}
}

// CreateAccount inserts a bank account row.
func (c *Client) CreateAccount(ctx context.Context, account *domain.BankAccount) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", account.ID))

	payload, err := json.Marshal(supabaseAccount{
		ID:             account.ID,
		Name:           account.Name,
		OpeningBalance: int64(account.OpeningBalance),
		CurrentBalance: int64(account.CurrentBalance),
		CreatedAt:      account.CreatedAt,
	})
	if err != nil {
		return err
	}

	if _, err := c.doRequest(ctx, http.MethodPost, "bank_accounts", payload); err != nil {
		return &domain.ErrExternalService{Service: "supabase/accounts", Err: err}
	}
	return nil
}

// GetAccount fetches one bank account by id.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	var account *domain.BankAccount

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("bank_accounts?id=eq.%s&limit=1", url.QueryEscape(accountID))
			body, err := c.doRequest(ctx, http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			var rows []supabaseAccount
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode account: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "account", ID: accountID}
			}

			account = rows[0].toDomain()
			return nil
		})
	})

	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nil, nf
		}
		return nil, &domain.ErrExternalService{Service: "supabase/accounts", Err: err}
	}

	return account, nil
}

// ListAccounts fetches all bank accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAccounts")
	defer span.End()

	var accounts []domain.BankAccount

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, "bank_accounts?order=name.asc", nil)
			if err != nil {
				return err
			}

			var rows []supabaseAccount
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode accounts: %w", err)
			}

			accounts = make([]domain.BankAccount, 0, len(rows))
			for _, r := range rows {
				accounts = append(accounts, *r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/accounts", Err: err}
	}

	return accounts, nil
}

// AdjustBalance calls the adjust_account_balance Postgres function,
// which performs the increment server-side in a single statement. Not
// retried: a timed-out call may still have committed.
func (c *Client) AdjustBalance(ctx context.Context, accountID string, delta domain.Centavos) (*domain.BankAccount, error) {
	ctx, span := tracer.Start(ctx, "Supabase.AdjustBalance")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.id", accountID),
		attribute.Int64("delta", int64(delta)),
	)

	payload, err := json.Marshal(map[string]any{
		"p_account_id": accountID,
		"p_delta":      int64(delta),
	})
	if err != nil {
		return nil, err
	}

	body, err := c.doRPC(ctx, "adjust_account_balance", payload)
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) && strings.Contains(reqErr.Body, "account_not_found") {
			return nil, &domain.ErrAccountNotFound{AccountID: accountID}
		}
		return nil, &domain.ErrExternalService{Service: "supabase/accounts", Err: err}
	}

	var row supabaseAccount
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("failed to decode adjusted account: %w", err)
	}
	return row.toDomain(), nil
}
