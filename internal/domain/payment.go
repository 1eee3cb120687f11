package domain

import "time"

// ============================================================
// Payments (money movements)
// ============================================================

// MovementKind classifies a payment as money in, money out, or a
// movement between two owned accounts.
type MovementKind string

const (
	MovementRevenue  MovementKind = "revenue"
	MovementExpense  MovementKind = "expense"
	MovementTransfer MovementKind = "transfer"
)

// Valid reports whether k is one of the known movement kinds.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementRevenue, MovementExpense, MovementTransfer:
		return true
	}
	return false
}

// LinkKind identifies the business document a payment originated from.
type LinkKind string

const (
	LinkSale         LinkKind = "sale"
	LinkServiceOrder LinkKind = "service_order"
	LinkCreditSale   LinkKind = "credit_sale"
	LinkPayable      LinkKind = "payable"
)

// Valid reports whether k is one of the known link kinds.
func (k LinkKind) Valid() bool {
	switch k {
	case LinkSale, LinkServiceOrder, LinkCreditSale, LinkPayable:
		return true
	}
	return false
}

// PaymentLink ties a payment to the single business document that
// originated it. A nil link means an unlinked manual entry; the type
// makes "at most one originating document" unrepresentable otherwise.
type PaymentLink struct {
	Kind LinkKind `json:"kind"`
	ID   string   `json:"id"`
}

// Payment is a single money movement. Amount is always non-negative;
// direction is carried by Kind plus the account roles, never by sign.
type Payment struct {
	ID                   string       `json:"id"`
	Amount               Centavos     `json:"amount"`
	Kind                 MovementKind `json:"movement_kind"`
	OccurredAt           time.Time    `json:"occurred_at"`
	SourceAccountID      string       `json:"source_account_id,omitempty"`
	DestinationAccountID string       `json:"destination_account_id,omitempty"`
	PaymentMethodID      string       `json:"payment_method_id,omitempty"`
	Link                 *PaymentLink `json:"link,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// PaymentDraft carries the caller-supplied fields for record and amend.
type PaymentDraft struct {
	Amount               Centavos
	Kind                 MovementKind
	OccurredAt           time.Time
	SourceAccountID      string
	DestinationAccountID string
	PaymentMethodID      string
	Link                 *PaymentLink
}

// Validate checks the draft against the movement-kind rules: a revenue
// needs a destination (money enters), an expense needs a source (money
// leaves), a transfer needs both and they must differ.
func (d *PaymentDraft) Validate() error {
	if d.Amount <= 0 {
		return &ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if !d.Kind.Valid() {
		return &ErrValidation{Field: "movement_kind", Message: "must be one of: revenue, expense, transfer"}
	}
	switch d.Kind {
	case MovementRevenue:
		if d.DestinationAccountID == "" {
			return &ErrValidation{Field: "destination_account_id", Message: "required for revenue"}
		}
	case MovementExpense:
		if d.SourceAccountID == "" {
			return &ErrValidation{Field: "source_account_id", Message: "required for expense"}
		}
	case MovementTransfer:
		if d.SourceAccountID == "" {
			return &ErrValidation{Field: "source_account_id", Message: "required for transfer"}
		}
		if d.DestinationAccountID == "" {
			return &ErrValidation{Field: "destination_account_id", Message: "required for transfer"}
		}
		if d.SourceAccountID == d.DestinationAccountID {
			return &ErrValidation{Field: "destination_account_id", Message: "must differ from source_account_id"}
		}
	}
	if d.Link != nil {
		if !d.Link.Kind.Valid() {
			return &ErrValidation{Field: "link.kind", Message: "must be one of: sale, service_order, credit_sale, payable"}
		}
		if d.Link.ID == "" {
			return &ErrValidation{Field: "link.id", Message: "required when link is set"}
		}
	}
	return nil
}

// PaymentFilter narrows a ledger listing. Zero values mean "no filter".
type PaymentFilter struct {
	Kind      MovementKind
	AccountID string // matches either source or destination
	LinkKind  LinkKind
}
