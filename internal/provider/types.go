package provider

import (
	"errors"

	"paysync/internal/domain/payment"
)

// CreateAttemptReq carries what the processor needs to open an attempt
type CreateAttemptReq struct {
	Amount       payment.Money    `json:"amount"`
	Currency     payment.Currency `json:"currency"`
	Description  string           `json:"description"`
	ReceiptEmail string           `json:"receipt_email"`
}

type CreateAttemptResp struct {
	AttemptID    string `json:"attempt_id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// Common error types
type ProviderError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	ProviderErr string `json:"provider_error,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.ProviderErr != "" {
		return e.Message + ": " + e.ProviderErr
	}
	return e.Message
}

// Error codes
const (
	ErrInvalidSignature = "invalid_signature"
	ErrInvalidPayload   = "invalid_payload"
	ErrInvalidRequest   = "invalid_request"
	ErrRateLimited      = "rate_limited"
	ErrCardDeclined     = "card_declined"
	ErrProviderTimeout  = "provider_timeout"
	ErrProviderDown     = "provider_down"
	ErrUnknownError     = "unknown_error"
)

// IsInvalidSignature reports whether err is a webhook authentication failure
func IsInvalidSignature(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == ErrInvalidSignature
}
