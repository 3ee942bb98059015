package payment

import (
	"fmt"
	"strings"
	"time"
)

// Attempt is one payment request tracked from creation to its terminal outcome.
// The ID is issued by the external processor; this service never invents one.
type Attempt struct {
	ID         string
	Status     Status
	Amount     Money
	Currency   Currency
	PayerName  string
	PayerEmail string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Status represents the attempt status as seen by pollers
type Status string

const (
	StatusPending               Status = "pending"
	StatusSucceeded             Status = "succeeded"
	StatusRequiresPaymentMethod Status = "requires_payment_method"
	StatusCanceled              Status = "canceled"
)

// IsTerminal reports whether no further transition is expected.
// requires_payment_method is terminal for polling: a retry needs a new attempt.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusRequiresPaymentMethod, StatusCanceled:
		return true
	}
	return false
}

// IsValid checks if the status is one of the known values
func (s Status) IsValid() bool {
	return s == StatusPending || s.IsTerminal()
}

// CanTransition checks if status can move from one value to another.
// Only pending may move, and only into a terminal status.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.IsTerminal()
}

// NewAttempt creates a pending attempt with validation
func NewAttempt(id string, amount Money, currency Currency, name, email string) (*Attempt, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("attempt ID is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %d", amount)
	}

	now := time.Now().UTC()
	return &Attempt{
		ID:         id,
		Status:     StatusPending,
		Amount:     amount,
		Currency:   currency,
		PayerName:  name,
		PayerEmail: email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Transition moves the attempt to a new status following the state machine.
// It returns false, and leaves the attempt untouched, when the move is not allowed.
func (a *Attempt) Transition(to Status) bool {
	if !CanTransition(a.Status, to) {
		return false
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	return true
}
