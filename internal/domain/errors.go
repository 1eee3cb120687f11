package domain

import "fmt"

// Error types for consistent error handling across the ledger engine.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrAccountNotFound indicates a payment references a bank account that
// does not exist. The whole operation fails; no balance is mutated.
type ErrAccountNotFound struct {
	AccountID string
}

func (e *ErrAccountNotFound) Error() string {
	return fmt.Sprintf("bank account not found: %s", e.AccountID)
}

// ErrOverpayment indicates a settlement would push a credit sale's
// amount_paid above its total due. The excess is rejected, never clamped,
// so the operator can correct the entered value.
type ErrOverpayment struct {
	SaleID     string
	AmountPaid Centavos
	Attempted  Centavos
	TotalDue   Centavos
}

func (e *ErrOverpayment) Error() string {
	return fmt.Sprintf("overpayment on credit sale %s: paid=%s + attempted=%s exceeds total=%s",
		e.SaleID, e.AmountPaid, e.Attempted, e.TotalDue)
}

// ErrInconsistency indicates ledger drift: a reversal whose effects cannot
// be located on the target entity (e.g. amount_paid would go negative).
// Fatal for the single operation; never swallowed.
type ErrInconsistency struct {
	Resource string
	ID       string
	Detail   string
}

func (e *ErrInconsistency) Error() string {
	return fmt.Sprintf("ledger inconsistency on %s %s: %s", e.Resource, e.ID, e.Detail)
}

// ErrExternalService indicates a failure in the storage backend.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}
