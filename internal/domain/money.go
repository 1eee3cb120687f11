package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Centavos is a monetary amount in BRL minor units (cents).
// All ledger arithmetic happens on this type; amounts are always
// non-negative on payments — direction comes from the movement kind.
type Centavos int64

// Decimal returns the amount as a two-place decimal (14990 -> 149.90).
func (c Centavos) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount with two decimal places, e.g. "149.90".
func (c Centavos) String() string {
	return c.Decimal().StringFixed(2)
}

// ParseCentavos converts a user-entered decimal string ("149.90") into
// minor units. Rejects more than two decimal places rather than rounding:
// a silently rounded financial entry is worse than an error.
func ParseCentavos(s string) (Centavos, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents := d.Mul(decimal.New(100, 0))
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	return Centavos(cents.IntPart()), nil
}
