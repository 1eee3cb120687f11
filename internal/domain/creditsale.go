package domain

import "time"

// ============================================================
// Credit sales (crediário)
// ============================================================

// CreditSaleStatus is the settlement state of a credit sale.
// Only "open" and "paid" are ever stored; "overdue" is a read-time
// projection (see EffectiveStatus).
type CreditSaleStatus string

const (
	CreditSaleOpen    CreditSaleStatus = "open"
	CreditSalePaid    CreditSaleStatus = "paid"
	CreditSaleOverdue CreditSaleStatus = "overdue"
)

// CreditSale tracks partial repayment of an installment sale until its
// balance reaches zero.
//
// Invariant: 0 <= AmountPaid <= TotalDue and BalanceDue ==
// TotalDue - AmountPaid, exactly, in minor units. Status is "paid" iff
// BalanceDue is zero.
type CreditSale struct {
	ID         string           `json:"id"`
	SaleID     string           `json:"sale_id"`
	ClientID   string           `json:"client_id"`
	TotalDue   Centavos         `json:"total_amount_due"`
	AmountPaid Centavos         `json:"amount_paid"`
	BalanceDue Centavos         `json:"balance_due"`
	DueDate    time.Time        `json:"due_date"`
	Status     CreditSaleStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// EffectiveStatus projects the overdue state at read time. Overdue is
// never written back — that would need a background job to stay in
// sync — so report layers filtering by status must go through this, not
// the stored column.
func (s *CreditSale) EffectiveStatus(now time.Time) CreditSaleStatus {
	if s.BalanceDue == 0 {
		return CreditSalePaid
	}
	if !s.DueDate.IsZero() && now.After(s.DueDate) {
		return CreditSaleOverdue
	}
	return CreditSaleOpen
}

// CreditSaleDraft carries the caller-supplied fields for creating a
// credit sale alongside its originating sale.
type CreditSaleDraft struct {
	SaleID   string
	ClientID string
	TotalDue Centavos
	DueDate  time.Time
}

// Validate checks the draft before creation.
func (d *CreditSaleDraft) Validate() error {
	if d.TotalDue <= 0 {
		return &ErrValidation{Field: "total_amount_due", Message: "must be positive"}
	}
	if d.SaleID == "" {
		return &ErrValidation{Field: "sale_id", Message: "required"}
	}
	if d.DueDate.IsZero() {
		return &ErrValidation{Field: "due_date", Message: "required"}
	}
	return nil
}
