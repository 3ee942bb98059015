package postgres

import (
	"context"
	"errors"
	"fmt"

	"paysync/internal/domain/payment"
	"paysync/internal/store/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// attemptRepository implements AttemptRepository on a single table keyed by processor ID
type attemptRepository struct {
	db *pgxpool.Pool
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db *pgxpool.Pool) repositories.AttemptRepository {
	return &attemptRepository{db: db}
}

// Create inserts a pending attempt; an existing row is left untouched
func (r *attemptRepository) Create(ctx context.Context, a *payment.Attempt) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO payment_attempts (id, status, amount, currency, payer_name, payer_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		a.ID, string(a.Status), int64(a.Amount), string(a.Currency),
		a.PayerName, a.PayerEmail, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrAlreadyExists
	}
	return nil
}

// FindByID finds an attempt by processor ID
func (r *attemptRepository) FindByID(ctx context.Context, id string) (*payment.Attempt, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, status, amount, currency, payer_name, payer_email, created_at, updated_at
		FROM payment_attempts
		WHERE id = $1`, id)

	var a payment.Attempt
	err := row.Scan(&a.ID, &a.Status, &a.Amount, &a.Currency,
		&a.PayerName, &a.PayerEmail, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Transition is a single conditional upsert: only pending rows move, and
// unknown IDs are inserted directly in the target status.
func (r *attemptRepository) Transition(ctx context.Context, id string, to payment.Status) (bool, error) {
	if !to.IsTerminal() {
		return false, fmt.Errorf("transition target must be terminal, got %q", to)
	}
	tag, err := r.db.Exec(ctx, `
		INSERT INTO payment_attempts (id, status)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		  SET status = EXCLUDED.status,
		      updated_at = now()
		WHERE payment_attempts.status = 'pending'`,
		id, string(to))
	if err != nil {
		return false, fmt.Errorf("transition attempt: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
