package event

import "paysync/internal/domain/payment"

// Event represents a verified outcome notification from the processor
type Event struct {
	ID        string
	Type      string
	Kind      Kind
	AttemptID string
}

// Kind classifies a notification by the outcome it reports
type Kind string

const (
	KindSucceeded Kind = "succeeded"
	KindFailed    Kind = "failed"
	KindCanceled  Kind = "canceled"
	KindOther     Kind = "other"
)

// TargetStatus maps the notification kind onto the attempt state machine.
// The second return value is false for kinds that do not move an attempt.
func (k Kind) TargetStatus() (payment.Status, bool) {
	switch k {
	case KindSucceeded:
		return payment.StatusSucceeded, true
	case KindFailed:
		return payment.StatusRequiresPaymentMethod, true
	case KindCanceled:
		return payment.StatusCanceled, true
	}
	return "", false
}

// IsOutcome reports whether the event carries a payment outcome
func (e Event) IsOutcome() bool {
	_, ok := e.Kind.TargetStatus()
	return ok && e.AttemptID != ""
}
