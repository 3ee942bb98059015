package provider

import (
	"context"

	"paysync/internal/domain/event"
)

// Processor is the external payment processor capability the core depends on
type Processor interface {
	Name() string
	// CreateAttempt asks the processor to open a payment attempt.
	CreateAttempt(ctx context.Context, req CreateAttemptReq) (*CreateAttemptResp, error)
	// VerifyNotification authenticates a webhook from its raw, unparsed body
	// and decodes it. Signature failures return *ProviderError with
	// ErrInvalidSignature.
	VerifyNotification(rawBody []byte, signatureHeader string) (*event.Event, error)
}
