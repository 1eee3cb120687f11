package domain

import "time"

// ============================================================
// Bank Accounts
// ============================================================

// BankAccount holds an account's opening and current balance.
//
// Invariant: CurrentBalance always equals OpeningBalance plus the signed
// sum of every payment delta durably applied against the account,
// accounting for reversals of deleted or amended payments. The balance
// engine is the only writer of CurrentBalance; OpeningBalance is fixed
// at creation.
type BankAccount struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OpeningBalance Centavos  `json:"opening_balance"`
	CurrentBalance Centavos  `json:"current_balance"`
	CreatedAt      time.Time `json:"created_at"`
}
