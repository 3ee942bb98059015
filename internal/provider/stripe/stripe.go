package stripe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"paysync/internal/provider"

	"github.com/rs/zerolog/log"
	stripego "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// Config holds the Stripe credentials and transport settings
type Config struct {
	SecretKey     string
	WebhookSecret string
	// APIURL overrides the Stripe API base URL (stripe-mock, tests).
	APIURL  string
	Timeout time.Duration
}

// Provider adapts Stripe PaymentIntents to provider.Processor
type Provider struct {
	api           *client.API
	webhookSecret string
	tolerance     time.Duration
}

var _ provider.Processor = (*Provider)(nil)

func New(cfg Config) *Provider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	backendCfg := &stripego.BackendConfig{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		// Retries are a caller concern; the core reports the first failure.
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     zerologLeveled{},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripego.String(cfg.APIURL)
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg)

	return &Provider{
		api: client.New(cfg.SecretKey, &stripego.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
		webhookSecret: cfg.WebhookSecret,
		tolerance:     webhook.DefaultTolerance,
	}
}

func (p *Provider) Name() string { return "stripe" }

// CreateAttempt creates a PaymentIntent and returns its ID and client secret
func (p *Provider) CreateAttempt(ctx context.Context, req provider.CreateAttemptReq) (*provider.CreateAttemptResp, error) {
	params := &stripego.PaymentIntentParams{
		Amount:       stripego.Int64(int64(req.Amount)),
		Currency:     stripego.String(string(req.Currency)),
		Description:  stripego.String(req.Description),
		ReceiptEmail: stripego.String(req.ReceiptEmail),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, translateError(ctx, err)
	}
	if pi.ID == "" || pi.ClientSecret == "" {
		return nil, &provider.ProviderError{
			Code:    provider.ErrUnknownError,
			Message: "stripe returned a payment intent without id or client secret",
		}
	}

	log.Debug().
		Str("provider", p.Name()).
		Str("attempt_id", pi.ID).
		Str("status", string(pi.Status)).
		Msg("payment intent created")

	return &provider.CreateAttemptResp{
		AttemptID:    pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// translateError maps Stripe and transport failures onto provider error codes
func translateError(ctx context.Context, err error) error {
	var ne net.Error
	timedOut := errors.As(err, &ne) && ne.Timeout()
	if timedOut || errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &provider.ProviderError{
			Code:        provider.ErrProviderTimeout,
			Message:     "stripe request timed out",
			ProviderErr: err.Error(),
		}
	}

	var se *stripego.Error
	if !errors.As(err, &se) {
		return &provider.ProviderError{
			Code:        provider.ErrProviderDown,
			Message:     "stripe request failed",
			ProviderErr: err.Error(),
		}
	}

	code := provider.ErrUnknownError
	switch {
	case se.HTTPStatusCode == http.StatusTooManyRequests:
		code = provider.ErrRateLimited
	case se.Type == stripego.ErrorTypeCard:
		code = provider.ErrCardDeclined
	case se.Type == stripego.ErrorTypeInvalidRequest:
		code = provider.ErrInvalidRequest
	case se.HTTPStatusCode >= 500:
		code = provider.ErrProviderDown
	}
	return &provider.ProviderError{
		Code:        code,
		Message:     fmt.Sprintf("stripe error (status %d)", se.HTTPStatusCode),
		ProviderErr: se.Msg,
	}
}

// zerologLeveled routes stripe-go's internal logging through zerolog
type zerologLeveled struct{}

func (zerologLeveled) Debugf(format string, v ...interface{}) {
	log.Debug().Str("component", "stripe").Msgf(format, v...)
}

func (zerologLeveled) Infof(format string, v ...interface{}) {
	log.Debug().Str("component", "stripe").Msgf(format, v...)
}

func (zerologLeveled) Warnf(format string, v ...interface{}) {
	log.Warn().Str("component", "stripe").Msgf(format, v...)
}

func (zerologLeveled) Errorf(format string, v ...interface{}) {
	log.Error().Str("component", "stripe").Msgf(format, v...)
}
