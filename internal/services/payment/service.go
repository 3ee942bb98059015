package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"paysync/internal/domain/payment"
	"paysync/internal/provider"
	"paysync/internal/store/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Service handles attempt creation and status lookup
type Service struct {
	attempts        repositories.AttemptRepository
	processor       provider.Processor
	currency        payment.Currency
	providerTimeout time.Duration
	validate        *validator.Validate
}

// Config holds service tunables
type Config struct {
	Currency        payment.Currency
	ProviderTimeout time.Duration
}

// NewService creates a new payment service
func NewService(attempts repositories.AttemptRepository, processor provider.Processor, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = payment.USD
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 20 * time.Second
	}
	return &Service{
		attempts:        attempts,
		processor:       processor,
		currency:        cfg.Currency,
		providerTimeout: cfg.ProviderTimeout,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreateAttemptInput is the client-supplied payment request.
// Amount is in major units and kept as a decimal string.
type CreateAttemptInput struct {
	Name   string `json:"name" validate:"required,max=200"`
	Email  string `json:"email" validate:"required,email"`
	Amount string `json:"amount" validate:"required"`
}

// CreateAttemptResult is what the caller needs to confirm and then poll
type CreateAttemptResult struct {
	ClientSecret string `json:"clientSecret"`
	AttemptID    string `json:"attemptId"`
}

// CreateAttempt validates the request, asks the processor for an attempt and
// registers it as pending. The attempt is in the store before this returns.
func (s *Service) CreateAttempt(ctx context.Context, in CreateAttemptInput) (*CreateAttemptResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Amount = strings.TrimSpace(in.Amount)

	amount, err := s.validateInput(in)
	if err != nil {
		return nil, err
	}

	pctx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	out, err := s.processor.CreateAttempt(pctx, provider.CreateAttemptReq{
		Amount:       amount,
		Currency:     s.currency,
		Description:  fmt.Sprintf("Payment from %s", in.Name),
		ReceiptEmail: in.Email,
	})
	if err != nil {
		log.Error().Err(err).
			Str("provider", s.processor.Name()).
			Int64("amount", int64(amount)).
			Str("currency", string(s.currency)).
			Msg("create attempt failed")
		return nil, &ServiceError{Op: "create_attempt", Message: "payment processor call failed", Err: err}
	}

	attempt, err := payment.NewAttempt(out.AttemptID, amount, s.currency, in.Name, in.Email)
	if err != nil {
		return nil, &ServiceError{Op: "create_attempt", Message: "processor returned an unusable attempt", Err: err}
	}
	// Register before answering; if this fails the caller must treat the whole call as failed.
	if err := s.attempts.Create(ctx, attempt); err != nil {
		log.Error().Err(err).
			Str("attempt_id", attempt.ID).
			Msg("failed to register pending attempt")
		return nil, &ServiceError{Op: "register_attempt", Message: "failed to persist attempt", Err: err}
	}

	log.Info().
		Str("attempt_id", attempt.ID).
		Int64("amount", int64(amount)).
		Str("display_amount", amount.Format(s.currency)).
		Msg("payment attempt registered")

	return &CreateAttemptResult{
		ClientSecret: out.ClientSecret,
		AttemptID:    attempt.ID,
	}, nil
}

// Status returns the current status of an attempt. Unknown IDs read as pending.
func (s *Service) Status(ctx context.Context, attemptID string) (payment.Status, error) {
	a, err := s.attempts.FindByID(ctx, attemptID)
	if errors.Is(err, repositories.ErrNotFound) {
		return payment.StatusPending, nil
	}
	if err != nil {
		return "", &ServiceError{Op: "status", Message: "status lookup failed", Err: err}
	}
	return a.Status, nil
}

func (s *Service) validateInput(in CreateAttemptInput) (payment.Money, error) {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return 0, &ValidationError{Field: jsonField(f.Field()), Message: fmt.Sprintf("failed %q check", f.Tag())}
		}
		return 0, &ValidationError{Message: err.Error()}
	}

	amount, err := payment.ToMinorUnits(in.Amount, s.currency)
	if err != nil {
		return 0, &ValidationError{Field: "amount", Message: err.Error()}
	}
	return amount, nil
}

func jsonField(structField string) string {
	switch structField {
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Amount":
		return "amount"
	}
	return structField
}
