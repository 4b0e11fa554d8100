package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines the payment repository interface
type Repository interface {
	Create(ctx context.Context, p *Payment) (*Payment, error)
	GetByReference(ctx context.Context, reference string) (*Payment, error)
	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Payment, error)
	UpdateStatus(ctx context.Context, reference string, status PaymentStatus) error
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const paymentColumns = `id, user_id, email, amount, reference, status, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, p *Payment) (*Payment, error) {
	query := fmt.Sprintf(`
		INSERT INTO payments (user_id, email, amount, reference, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING %s`, paymentColumns)

	var created Payment
	err := r.db.QueryRowxContext(ctx, query,
		p.UserID, p.Email, p.Amount, p.Reference, p.Status,
	).StructScan(&created)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrDuplicateReference
		}
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return &created, nil
}

func (r *postgresRepository) GetByReference(ctx context.Context, reference string) (*Payment, error) {
	var p Payment
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE reference = $1`, paymentColumns)
	err := r.db.GetContext(ctx, &p, query, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Payment, error) {
	var payments []*Payment
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, paymentColumns)

	err := r.db.SelectContext(ctx, &payments, query, userID, limit, offset)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, reference string, status PaymentStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $1, updated_at = NOW()
		WHERE reference = $2`,
		status, reference)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
