// Package memstore is an in-memory implementation of the storage ports.
// It is the reference backend: unit and integration tests run against
// it, and it backs local development when no database is configured.
// Every mutation runs under the store mutex, which gives the per-account
// and per-credit-sale serialization the ledger requires.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
)

// Store holds all ledger state in maps guarded by a single mutex.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*domain.BankAccount
	payments map[string]*domain.Payment
	sales    map[string]*domain.CreditSale
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*domain.BankAccount),
		payments: make(map[string]*domain.Payment),
		sales:    make(map[string]*domain.CreditSale),
	}
}

// ============================================================
// AccountStore
// ============================================================

func (s *Store) CreateAccount(_ context.Context, account *domain.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID string) (*domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "bank_account", ID: accountID}
	}
	cp := *a
	return &cp, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.BankAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AdjustBalance performs the read-modify-write under the store lock, so
// concurrent adjustments against the same account all land.
func (s *Store) AdjustBalance(_ context.Context, accountID string, delta domain.Centavos) (*domain.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, &domain.ErrAccountNotFound{AccountID: accountID}
	}
	a.CurrentBalance += delta
	cp := *a
	return &cp, nil
}

// ============================================================
// PaymentStore
// ============================================================

func (s *Store) CreatePayment(_ context.Context, p *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payments[p.ID] = clonePayment(p)
	return nil
}

func (s *Store) GetPayment(_ context.Context, paymentID string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "payment", ID: paymentID}
	}
	return clonePayment(p), nil
}

func (s *Store) UpdatePayment(_ context.Context, p *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[p.ID]; !ok {
		return &domain.ErrNotFound{Resource: "payment", ID: p.ID}
	}
	s.payments[p.ID] = clonePayment(p)
	return nil
}

func (s *Store) DeletePayment(_ context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[paymentID]; !ok {
		return &domain.ErrNotFound{Resource: "payment", ID: paymentID}
	}
	delete(s.payments, paymentID)
	return nil
}

func (s *Store) ListPayments(_ context.Context, rng domain.DateRange, filter domain.PaymentFilter, page, pageSize int) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if !rng.Contains(p.OccurredAt) {
			continue
		}
		if filter.Kind != "" && p.Kind != filter.Kind {
			continue
		}
		if filter.AccountID != "" && p.SourceAccountID != filter.AccountID && p.DestinationAccountID != filter.AccountID {
			continue
		}
		if filter.LinkKind != "" && (p.Link == nil || p.Link.Kind != filter.LinkKind) {
			continue
		}
		out = append(out, *clonePayment(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })

	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		start := (page - 1) * pageSize
		if start >= len(out) {
			return []domain.Payment{}, nil
		}
		end := start + pageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

// ============================================================
// CreditSaleStore
// ============================================================

func (s *Store) CreateCreditSale(_ context.Context, sale *domain.CreditSale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sale
	s.sales[sale.ID] = &cp
	return nil
}

func (s *Store) GetCreditSale(_ context.Context, saleID string) (*domain.CreditSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[saleID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "credit_sale", ID: saleID}
	}
	cp := *sale
	return &cp, nil
}

func (s *Store) ListCreditSales(_ context.Context) ([]domain.CreditSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CreditSale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, *sale)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ApplySettlement checks and updates amount_paid in one critical
// section: the bound 0 <= amount_paid <= total_amount_due either holds
// after the call or the sale is left untouched.
func (s *Store) ApplySettlement(_ context.Context, saleID string, delta domain.Centavos) (*domain.CreditSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[saleID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "credit_sale", ID: saleID}
	}

	newPaid := sale.AmountPaid + delta
	if newPaid > sale.TotalDue {
		return nil, &domain.ErrOverpayment{
			SaleID:     saleID,
			AmountPaid: sale.AmountPaid,
			Attempted:  delta,
			TotalDue:   sale.TotalDue,
		}
	}
	if newPaid < 0 {
		return nil, &domain.ErrInconsistency{
			Resource: "credit_sale",
			ID:       saleID,
			Detail:   "reversal exceeds amount paid",
		}
	}

	sale.AmountPaid = newPaid
	sale.BalanceDue = sale.TotalDue - newPaid
	if sale.BalanceDue == 0 {
		sale.Status = domain.CreditSalePaid
	} else {
		sale.Status = domain.CreditSaleOpen
	}
	sale.UpdatedAt = time.Now()

	cp := *sale
	return &cp, nil
}

func clonePayment(p *domain.Payment) *domain.Payment {
	cp := *p
	if p.Link != nil {
		link := *p.Link
		cp.Link = &link
	}
	return &cp
}
