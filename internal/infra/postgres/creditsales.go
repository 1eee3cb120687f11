package postgres

import (
	"context"
	"errors"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"

	"github.com/jackc/pgx/v5"
)

const creditSaleColumns = `id, sale_id, client_id, total_amount_due, amount_paid,
	balance_due, due_date, status, created_at, updated_at`

func (s *Store) CreateCreditSale(ctx context.Context, sale *domain.CreditSale) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO credit_sales (id, sale_id, client_id, total_amount_due, amount_paid,
		                           balance_due, due_date, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sale.ID, sale.SaleID, sale.ClientID, int64(sale.TotalDue), int64(sale.AmountPaid),
		int64(sale.BalanceDue), sale.DueDate, string(sale.Status), sale.CreatedAt, sale.UpdatedAt,
	)
	return err
}

func (s *Store) GetCreditSale(ctx context.Context, saleID string) (*domain.CreditSale, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+creditSaleColumns+` FROM credit_sales WHERE id = $1`, saleID)
	return scanCreditSale(row, saleID)
}

func (s *Store) ListCreditSales(ctx context.Context) ([]domain.CreditSale, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+creditSaleColumns+` FROM credit_sales ORDER BY due_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []domain.CreditSale{}
	for rows.Next() {
		sale, err := scanCreditSale(rows, "")
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	return sales, rows.Err()
}

// ApplySettlement is a single guarded UPDATE: the WHERE clause enforces
// the bounds check in the same statement as the increment, so concurrent
// settlements can never overshoot total_amount_due or drop below zero.
func (s *Store) ApplySettlement(ctx context.Context, saleID string, delta domain.Centavos) (*domain.CreditSale, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE credit_sales
		 SET amount_paid = amount_paid + $1,
		     balance_due = total_amount_due - (amount_paid + $1),
		     status      = CASE WHEN total_amount_due - (amount_paid + $1) = 0
		                        THEN 'paid' ELSE 'open' END,
		     updated_at  = now()
		 WHERE id = $2 AND amount_paid + $1 BETWEEN 0 AND total_amount_due
		 RETURNING `+creditSaleColumns, int64(delta), saleID)

	sale, err := scanCreditSale(row, saleID)
	if err == nil {
		return sale, nil
	}
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		return nil, err
	}

	// The guard rejected the update; fetch the row to tell bounds
	// violations apart from a missing sale.
	current, getErr := s.GetCreditSale(ctx, saleID)
	if getErr != nil {
		return nil, getErr
	}
	if delta > 0 {
		return nil, &domain.ErrOverpayment{
			SaleID:     saleID,
			AmountPaid: current.AmountPaid,
			Attempted:  delta,
			TotalDue:   current.TotalDue,
		}
	}
	return nil, &domain.ErrInconsistency{
		Resource: "credit_sale",
		ID:       saleID,
		Detail:   "reversal would drop amount_paid below zero",
	}
}

func scanCreditSale(row pgx.Row, saleID string) (*domain.CreditSale, error) {
	var sale domain.CreditSale
	var totalDue, amountPaid, balanceDue int64
	var status string

	err := row.Scan(&sale.ID, &sale.SaleID, &sale.ClientID, &totalDue, &amountPaid,
		&balanceDue, &sale.DueDate, &status, &sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.ErrNotFound{Resource: "credit_sale", ID: saleID}
		}
		return nil, err
	}
	sale.TotalDue = domain.Centavos(totalDue)
	sale.AmountPaid = domain.Centavos(amountPaid)
	sale.BalanceDue = domain.Centavos(balanceDue)
	sale.Status = domain.CreditSaleStatus(status)
	return &sale, nil
}
