package domain

import "time"

// ============================================================
// Period summary
// ============================================================

// DateRange bounds a ledger scan by occurred_at. Both ends are
// inclusive; a zero bound means unbounded on that side.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// PeriodSummary aggregates ledger totals per movement kind over a range.
// NetBalance is revenue minus expense; transfers are excluded from net
// since they move cash between owned accounts without changing the total
// position.
type PeriodSummary struct {
	TotalRevenue  Centavos  `json:"total_revenue"`
	TotalExpense  Centavos  `json:"total_expense"`
	TotalTransfer Centavos  `json:"total_transfer"`
	NetBalance    Centavos  `json:"net_balance"`
	Count         int       `json:"count"`
	Period        DateRange `json:"period"`
}
