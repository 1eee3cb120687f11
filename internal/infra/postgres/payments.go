package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"

	"github.com/jackc/pgx/v5"
)

const paymentColumns = `id, amount, movement_kind, occurred_at,
	COALESCE(source_account_id, ''), COALESCE(destination_account_id, ''),
	COALESCE(payment_method_id, ''), link_type, link_id, created_at, updated_at`

func (s *Store) CreatePayment(ctx context.Context, p *domain.Payment) error {
	linkType, linkID := linkColumns(p.Link)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO payments (id, amount, movement_kind, occurred_at, source_account_id,
		                       destination_account_id, payment_method_id, link_type, link_id,
		                       created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11)`,
		p.ID, int64(p.Amount), string(p.Kind), p.OccurredAt, p.SourceAccountID,
		p.DestinationAccountID, p.PaymentMethodID, linkType, linkID,
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *Store) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.ErrNotFound{Resource: "payment", ID: paymentID}
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	linkType, linkID := linkColumns(p.Link)
	tag, err := s.pool.Exec(ctx,
		`UPDATE payments
		 SET amount = $1, movement_kind = $2, occurred_at = $3,
		     source_account_id = NULLIF($4, ''), destination_account_id = NULLIF($5, ''),
		     payment_method_id = NULLIF($6, ''), link_type = $7, link_id = $8, updated_at = $9
		 WHERE id = $10`,
		int64(p.Amount), string(p.Kind), p.OccurredAt, p.SourceAccountID,
		p.DestinationAccountID, p.PaymentMethodID, linkType, linkID,
		p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "payment", ID: p.ID}
	}
	return nil
}

func (s *Store) DeletePayment(ctx context.Context, paymentID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, paymentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "payment", ID: paymentID}
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, rng domain.DateRange, filter domain.PaymentFilter, page, pageSize int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`
	var conditions []string
	var args []any

	if !rng.From.IsZero() {
		args = append(args, rng.From)
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if !rng.To.IsZero() {
		args = append(args, rng.To)
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", len(args)))
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		conditions = append(conditions, fmt.Sprintf("movement_kind = $%d", len(args)))
	}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		conditions = append(conditions, fmt.Sprintf("(source_account_id = $%d OR destination_account_id = $%d)", len(args), len(args)))
	}
	if filter.LinkKind != "" {
		args = append(args, string(filter.LinkKind))
		conditions = append(conditions, fmt.Sprintf("link_type = $%d", len(args)))
	}

	for i, c := range conditions {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY occurred_at DESC"

	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		args = append(args, pageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (page-1)*pageSize)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var amount int64
	var kind string
	var linkType, linkID *string

	err := row.Scan(&p.ID, &amount, &kind, &p.OccurredAt, &p.SourceAccountID,
		&p.DestinationAccountID, &p.PaymentMethodID, &linkType, &linkID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Amount = domain.Centavos(amount)
	p.Kind = domain.MovementKind(kind)
	if linkType != nil && linkID != nil {
		p.Link = &domain.PaymentLink{Kind: domain.LinkKind(*linkType), ID: *linkID}
	}
	return &p, nil
}

func linkColumns(link *domain.PaymentLink) (linkType, linkID *string) {
	if link == nil {
		return nil, nil
	}
	t, id := string(link.Kind), link.ID
	return &t, &id
}
