package stripe

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"paysync/internal/domain/event"
	"paysync/internal/provider"

	stripego "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

// Stripe event types that carry a PaymentIntent outcome
const (
	EventPaymentIntentSucceeded     = "payment_intent.succeeded"
	EventPaymentIntentPaymentFailed = "payment_intent.payment_failed"
	EventPaymentIntentCanceled      = "payment_intent.canceled"
)

// SignatureHeader is the header Stripe signs webhooks with
const SignatureHeader = "Stripe-Signature"

var signatureErrors = []error{
	webhook.ErrNotSigned,
	webhook.ErrInvalidHeader,
	webhook.ErrNoValidSignature,
	webhook.ErrTooOld,
}

// VerifyNotification checks the Stripe-Signature HMAC over the raw body and
// decodes the event. The body must be exactly the bytes Stripe sent.
func (p *Provider) VerifyNotification(rawBody []byte, signatureHeader string) (*event.Event, error) {
	if p.webhookSecret == "" {
		return nil, &provider.ProviderError{
			Code:    provider.ErrInvalidSignature,
			Message: "webhook secret not configured",
		}
	}

	evt, err := webhook.ConstructEventWithOptions(rawBody, signatureHeader, p.webhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                p.tolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		for _, sigErr := range signatureErrors {
			if errors.Is(err, sigErr) {
				return nil, &provider.ProviderError{
					Code:        provider.ErrInvalidSignature,
					Message:     "webhook signature verification failed",
					ProviderErr: err.Error(),
				}
			}
		}
		return nil, &provider.ProviderError{
			Code:        provider.ErrInvalidPayload,
			Message:     "webhook payload could not be decoded",
			ProviderErr: err.Error(),
		}
	}

	out := &event.Event{
		ID:   evt.ID,
		Type: string(evt.Type),
		Kind: kindOf(string(evt.Type)),
	}
	if out.Kind != event.KindOther {
		id, err := paymentIntentID(evt.Data)
		if err != nil {
			return nil, &provider.ProviderError{
				Code:        provider.ErrInvalidPayload,
				Message:     "webhook event has no payment intent",
				ProviderErr: err.Error(),
			}
		}
		out.AttemptID = id
	}
	return out, nil
}

func kindOf(eventType string) event.Kind {
	switch eventType {
	case EventPaymentIntentSucceeded:
		return event.KindSucceeded
	case EventPaymentIntentPaymentFailed:
		return event.KindFailed
	case EventPaymentIntentCanceled:
		return event.KindCanceled
	}
	return event.KindOther
}

func paymentIntentID(data *stripego.EventData) (string, error) {
	if data == nil || len(data.Raw) == 0 {
		return "", fmt.Errorf("missing data.object")
	}
	var obj struct {
		ID     string `json:"id"`
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data.Raw, &obj); err != nil {
		return "", err
	}
	if obj.Object != "payment_intent" || obj.ID == "" {
		return "", fmt.Errorf("data.object is %q, want payment_intent", obj.Object)
	}
	return obj.ID, nil
}

// SignPayload builds a Stripe-Signature header value for body, the way Stripe
// signs deliveries. paycli uses it to send local test notifications.
func SignPayload(body []byte, secret string, at time.Time) string {
	sig := webhook.ComputeSignature(at, body, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

// NotificationBody renders a minimal Stripe event envelope for a PaymentIntent.
// It carries only the fields VerifyNotification reads.
func NotificationBody(eventID, eventType, attemptID string, at time.Time) ([]byte, error) {
	status := "processing"
	switch eventType {
	case EventPaymentIntentSucceeded:
		status = "succeeded"
	case EventPaymentIntentPaymentFailed:
		status = "requires_payment_method"
	case EventPaymentIntentCanceled:
		status = "canceled"
	}
	return json.Marshal(map[string]any{
		"id":       eventID,
		"object":   "event",
		"type":     eventType,
		"created":  at.Unix(),
		"livemode": false,
		"data": map[string]any{
			"object": map[string]any{
				"id":     attemptID,
				"object": "payment_intent",
				"status": status,
			},
		},
	})
}
