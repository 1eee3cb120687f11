package postgres

import (
	"context"
	"errors"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (s *Store) CreateAccount(ctx context.Context, account *domain.BankAccount) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bank_accounts (id, name, opening_balance, current_balance, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		account.ID, account.Name, int64(account.OpeningBalance), int64(account.CurrentBalance), account.CreatedAt,
	)
	return err
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, opening_balance, current_balance, created_at
		 FROM bank_accounts WHERE id = $1`,
		accountID,
	)
	return scanAccount(row, accountID)
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, opening_balance, current_balance, created_at
		 FROM bank_accounts ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []domain.BankAccount{}
	for rows.Next() {
		var a domain.BankAccount
		var opening, current int64
		if err := rows.Scan(&a.ID, &a.Name, &opening, &current, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.OpeningBalance = domain.Centavos(opening)
		a.CurrentBalance = domain.Centavos(current)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// AdjustBalance increments the balance in a single UPDATE, never
// "read balance, compute client-side, write it back" — the database
// serializes concurrent increments on the same row.
func (s *Store) AdjustBalance(ctx context.Context, accountID string, delta domain.Centavos) (*domain.BankAccount, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE bank_accounts
		 SET current_balance = current_balance + $1
		 WHERE id = $2
		 RETURNING id, name, opening_balance, current_balance, created_at`,
		int64(delta), accountID,
	)

	account, err := scanAccount(row, accountID)
	if err != nil {
		if errors.As(err, new(*domain.ErrNotFound)) {
			return nil, &domain.ErrAccountNotFound{AccountID: accountID}
		}
		return nil, err
	}

	s.logger.Debug("balance adjusted",
		zap.String("account_id", accountID),
		zap.Int64("delta", int64(delta)),
		zap.Int64("new_balance", int64(account.CurrentBalance)),
	)
	return account, nil
}

func scanAccount(row pgx.Row, accountID string) (*domain.BankAccount, error) {
	var a domain.BankAccount
	var opening, current int64
	if err := row.Scan(&a.ID, &a.Name, &opening, &current, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.ErrNotFound{Resource: "bank_account", ID: accountID}
		}
		return nil, err
	}
	a.OpeningBalance = domain.Centavos(opening)
	a.CurrentBalance = domain.Centavos(current)
	return &a, nil
}
