package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/infra/memstore"
	"github.com/mateusffsc/sapataria-ledger-go/internal/service"

	"go.uber.org/zap"
)

func TestAccountCreate_SeedsCurrentBalance(t *testing.T) {
	svc := service.NewAccountService(memstore.New(), zap.NewNop())

	account, err := svc.Create(context.Background(), "Caixa da Loja", 250000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if account.ID == "" {
		t.Error("expected generated account id")
	}
	if account.CurrentBalance != 250000 {
		t.Errorf("current_balance: expected seeded 250000, got %d", account.CurrentBalance)
	}
	if account.OpeningBalance != 250000 {
		t.Errorf("opening_balance: expected 250000, got %d", account.OpeningBalance)
	}
}

func TestAccountCreate_Validation(t *testing.T) {
	svc := service.NewAccountService(memstore.New(), zap.NewNop())

	if _, err := svc.Create(context.Background(), "", 100); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := svc.Create(context.Background(), "Caixa", -1); err == nil {
		t.Error("expected error for negative opening balance")
	}
}

func TestAccountGet_NotFound(t *testing.T) {
	svc := service.NewAccountService(memstore.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "ghost")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
