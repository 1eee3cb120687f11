package service

import (
	"context"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var accountTracer = otel.Tracer("service/accounts")

// AccountService covers administrative account setup and reads. It never
// touches current_balance beyond seeding it from the opening balance;
// all later balance mutation belongs to the balance engine.
type AccountService struct {
	accounts port.AccountStore
	logger   *zap.Logger
}

// NewAccountService creates an account service.
func NewAccountService(accounts port.AccountStore, logger *zap.Logger) *AccountService {
	return &AccountService{accounts: accounts, logger: logger}
}

// Create registers a bank account. The opening balance is immutable once
// set and the current balance starts equal to it.
func (s *AccountService) Create(ctx context.Context, name string, openingBalance domain.Centavos) (*domain.BankAccount, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.Create")
	defer span.End()

	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if openingBalance < 0 {
		return nil, &domain.ErrValidation{Field: "opening_balance", Message: "must not be negative"}
	}

	account := &domain.BankAccount{
		ID:             uuid.New().String(),
		Name:           name,
		OpeningBalance: openingBalance,
		CurrentBalance: openingBalance,
		CreatedAt:      time.Now(),
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("bank account created",
		zap.String("account_id", account.ID),
		zap.String("name", account.Name),
		zap.String("opening_balance", account.OpeningBalance.String()),
	)
	return account, nil
}

// Get returns an account by id.
func (s *AccountService) Get(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.Get")
	defer span.End()

	return s.accounts.GetAccount(ctx, accountID)
}

// List returns all accounts.
func (s *AccountService) List(ctx context.Context) ([]domain.BankAccount, error) {
	ctx, span := accountTracer.Start(ctx, "AccountService.List")
	defer span.End()

	return s.accounts.ListAccounts(ctx)
}
