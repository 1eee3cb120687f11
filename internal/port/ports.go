// Package port defines the interfaces (ports) for the ledger's storage
// dependencies. Following hexagonal architecture, these ports decouple
// the domain/service layer from concrete implementations; every
// component receives its stores through its constructor — no ambient
// client, no package-level state.
package port

import (
	"context"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
)

// AccountStore holds bank accounts and their balances.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *domain.BankAccount) error
	GetAccount(ctx context.Context, accountID string) (*domain.BankAccount, error)
	ListAccounts(ctx context.Context) ([]domain.BankAccount, error)

	// AdjustBalance atomically adds delta (which may be negative) to the
	// account's current balance and returns the updated account. The
	// read-modify-write must happen inside the store — two concurrent
	// adjustments against the same account must both land. Returns
	// *domain.ErrAccountNotFound if the account does not exist; in that
	// case no mutation occurs.
	AdjustBalance(ctx context.Context, accountID string, delta domain.Centavos) (*domain.BankAccount, error)
}

// PaymentStore is the append/amend/remove store of payment records.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *domain.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, p *domain.Payment) error
	DeletePayment(ctx context.Context, paymentID string) error

	// ListPayments returns payments whose occurred_at falls inside rng
	// (inclusive bounds), newest first. pageSize <= 0 disables
	// pagination and returns everything in range.
	ListPayments(ctx context.Context, rng domain.DateRange, filter domain.PaymentFilter, page, pageSize int) ([]domain.Payment, error)
}

// CreditSaleStore holds crediário records and their settlement state.
type CreditSaleStore interface {
	CreateCreditSale(ctx context.Context, sale *domain.CreditSale) error
	GetCreditSale(ctx context.Context, saleID string) (*domain.CreditSale, error)
	ListCreditSales(ctx context.Context) ([]domain.CreditSale, error)

	// ApplySettlement atomically adds delta to the sale's amount_paid,
	// recomputes balance_due and the stored status (paid iff balance is
	// zero, open otherwise), and returns the updated sale. The bound
	// 0 <= amount_paid <= total_amount_due is enforced inside the store:
	// a positive delta that would exceed the total fails with
	// *domain.ErrOverpayment, a negative delta that would go below zero
	// fails with *domain.ErrInconsistency, and in either case the sale
	// is left untouched. Returns *domain.ErrNotFound for an unknown id.
	ApplySettlement(ctx context.Context, saleID string, delta domain.Centavos) (*domain.CreditSale, error)
}

// Store is the full storage surface a backend must provide. Implemented
// by the in-memory, Postgres, and Supabase adapters.
type Store interface {
	AccountStore
	PaymentStore
	CreditSaleStore
}
