package domain_test

import (
	"testing"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
)

func TestParseCentavos(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Centavos
		wantErr bool
	}{
		{"149.90", 14990, false},
		{"0.01", 1, false},
		{"1000", 100000, false},
		{"0", 0, false},
		{"10.999", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := domain.ParseCentavos(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCentavos(%q): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCentavos(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCentavos(%q): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestCentavosString(t *testing.T) {
	if got := domain.Centavos(14990).String(); got != "149.90" {
		t.Errorf("expected 149.90, got %s", got)
	}
	if got := domain.Centavos(5).String(); got != "0.05" {
		t.Errorf("expected 0.05, got %s", got)
	}
	if got := domain.Centavos(-2500).String(); got != "-25.00" {
		t.Errorf("expected -25.00, got %s", got)
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	open := domain.CreditSale{BalanceDue: 100, DueDate: now.Add(time.Hour), Status: domain.CreditSaleOpen}
	if got := open.EffectiveStatus(now); got != domain.CreditSaleOpen {
		t.Errorf("before due date: expected open, got %s", got)
	}

	overdue := domain.CreditSale{BalanceDue: 100, DueDate: now.Add(-time.Hour), Status: domain.CreditSaleOpen}
	if got := overdue.EffectiveStatus(now); got != domain.CreditSaleOverdue {
		t.Errorf("past due date: expected overdue, got %s", got)
	}

	// A settled sale is paid no matter how old its due date is.
	paid := domain.CreditSale{BalanceDue: 0, DueDate: now.Add(-time.Hour), Status: domain.CreditSalePaid}
	if got := paid.EffectiveStatus(now); got != domain.CreditSalePaid {
		t.Errorf("settled sale: expected paid, got %s", got)
	}
}
