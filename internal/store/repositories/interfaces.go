package repositories

import (
	"context"
	"errors"

	"paysync/internal/domain/payment"
)

var (
	ErrNotFound      = errors.New("attempt not found")
	ErrAlreadyExists = errors.New("attempt already exists")
)

// AttemptRepository defines the contract for the attempt status store.
//
// Implementations must make a committed Transition visible to any later
// FindByID on the same key, and must not serialize operations on
// different keys against each other.
type AttemptRepository interface {
	// Create registers a new attempt. It never overwrites an existing one.
	Create(ctx context.Context, a *payment.Attempt) error
	// FindByID returns ErrNotFound for unknown IDs.
	FindByID(ctx context.Context, id string) (*payment.Attempt, error)
	// Transition assigns a status guarded by payment.CanTransition.
	// Unknown IDs are recorded directly in a terminal status. A refused
	// transition is not an error: it reports applied=false.
	Transition(ctx context.Context, id string, to payment.Status) (applied bool, err error)
}
