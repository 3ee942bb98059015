package event

import (
	"context"
	"errors"
	"fmt"

	"paysync/internal/provider"
	"paysync/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// ErrInvalidSignature is returned when a notification cannot be authenticated.
// No state is changed when it is returned.
var ErrInvalidSignature = errors.New("notification signature verification failed")

// ErrInvalidPayload is returned for a correctly signed body that cannot be decoded
var ErrInvalidPayload = errors.New("notification payload invalid")

// Result describes what an ingested notification did
type Result struct {
	EventID   string
	Type      string
	AttemptID string
	// Applied is false for ignored kinds and for duplicate deliveries.
	Applied bool
	Ignored bool
}

// Ingestor verifies processor notifications and applies them to the status store
type Ingestor struct {
	attempts repositories.AttemptRepository
	verifier provider.Processor
}

// NewIngestor creates a new notification ingestor
func NewIngestor(attempts repositories.AttemptRepository, verifier provider.Processor) *Ingestor {
	return &Ingestor{attempts: attempts, verifier: verifier}
}

// Ingest authenticates rawBody against signatureHeader and applies the outcome.
// rawBody must be the unparsed request body.
func (i *Ingestor) Ingest(ctx context.Context, rawBody []byte, signatureHeader string) (*Result, error) {
	evt, err := i.verifier.VerifyNotification(rawBody, signatureHeader)
	if err != nil {
		if provider.IsInvalidSignature(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	res := &Result{EventID: evt.ID, Type: evt.Type, AttemptID: evt.AttemptID}

	if !evt.IsOutcome() {
		res.Ignored = true
		log.Debug().
			Str("event_id", evt.ID).
			Str("type", evt.Type).
			Msg("notification ignored")
		return res, nil
	}

	to, _ := evt.Kind.TargetStatus()
	applied, err := i.attempts.Transition(ctx, evt.AttemptID, to)
	if err != nil {
		return nil, fmt.Errorf("apply %s to %s: %w", to, evt.AttemptID, err)
	}
	res.Applied = applied

	if applied {
		log.Info().
			Str("event_id", evt.ID).
			Str("attempt_id", evt.AttemptID).
			Str("status", string(to)).
			Msg("attempt status updated")
	} else {
		// Redelivery, or a later outcome for an attempt that is already terminal.
		log.Debug().
			Str("event_id", evt.ID).
			Str("attempt_id", evt.AttemptID).
			Str("status", string(to)).
			Msg("notification had no effect")
	}
	return res, nil
}
