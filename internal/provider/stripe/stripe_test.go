package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paysync/internal/domain/event"
	"paysync/internal/domain/payment"
	"paysync/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		APIURL:        srv.URL,
		Timeout:       2 * time.Second,
	})
}

func TestCreateAttempt(t *testing.T) {
	var form map[string]string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"amount":        r.PostForm.Get("amount"),
			"currency":      r.PostForm.Get("currency"),
			"receipt_email": r.PostForm.Get("receipt_email"),
			"automatic":     r.PostForm.Get("automatic_payment_methods[enabled]"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_test_1","object":"payment_intent","client_secret":"pi_test_1_secret_abc","status":"requires_payment_method","amount":1235,"currency":"usd"}`))
	})

	out, err := p.CreateAttempt(context.Background(), provider.CreateAttemptReq{
		Amount:       1235,
		Currency:     payment.USD,
		Description:  "Payment from Ada",
		ReceiptEmail: "ada@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_test_1", out.AttemptID)
	assert.Equal(t, "pi_test_1_secret_abc", out.ClientSecret)

	assert.Equal(t, "1235", form["amount"])
	assert.Equal(t, "usd", form["currency"])
	assert.Equal(t, "ada@example.com", form["receipt_email"])
	assert.Equal(t, "true", form["automatic"])
}

func TestCreateAttemptErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{"card declined", http.StatusPaymentRequired, `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`, provider.ErrCardDeclined},
		{"invalid request", http.StatusBadRequest, `{"error":{"type":"invalid_request_error","message":"Amount must be at least 50 cents"}}`, provider.ErrInvalidRequest},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"type":"invalid_request_error","message":"Too many requests"}}`, provider.ErrRateLimited},
		{"server error", http.StatusInternalServerError, `{"error":{"type":"api_error","message":"boom"}}`, provider.ErrProviderDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := p.CreateAttempt(context.Background(), provider.CreateAttemptReq{Amount: 100, Currency: payment.USD})

			var pe *provider.ProviderError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.code, pe.Code)
		})
	}
}

func TestCreateAttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := p.CreateAttempt(ctx, provider.CreateAttemptReq{Amount: 100, Currency: payment.USD})

	var pe *provider.ProviderError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, provider.ErrProviderTimeout, pe.Code)
}

func signedNotification(t *testing.T, eventType, attemptID string, at time.Time) ([]byte, string) {
	t.Helper()
	body, err := NotificationBody("evt_test_1", eventType, attemptID, at)
	require.NoError(t, err)
	return body, SignPayload(body, testWebhookSecret, at)
}

func TestVerifyNotification(t *testing.T) {
	p := New(Config{SecretKey: "sk_test_123", WebhookSecret: testWebhookSecret})

	cases := map[string]event.Kind{
		EventPaymentIntentSucceeded:     event.KindSucceeded,
		EventPaymentIntentPaymentFailed: event.KindFailed,
		EventPaymentIntentCanceled:      event.KindCanceled,
	}
	for eventType, kind := range cases {
		t.Run(eventType, func(t *testing.T) {
			body, sig := signedNotification(t, eventType, "pi_test_1", time.Now())

			evt, err := p.VerifyNotification(body, sig)
			require.NoError(t, err)
			assert.Equal(t, "evt_test_1", evt.ID)
			assert.Equal(t, eventType, evt.Type)
			assert.Equal(t, kind, evt.Kind)
			assert.Equal(t, "pi_test_1", evt.AttemptID)
			assert.True(t, evt.IsOutcome())
		})
	}
}

func TestVerifyNotificationIgnoresOtherTypes(t *testing.T) {
	p := New(Config{SecretKey: "sk_test_123", WebhookSecret: testWebhookSecret})
	body, sig := signedNotification(t, "payment_intent.created", "pi_test_1", time.Now())

	evt, err := p.VerifyNotification(body, sig)
	require.NoError(t, err)
	assert.Equal(t, event.KindOther, evt.Kind)
	assert.False(t, evt.IsOutcome())
}

func TestVerifyNotificationRejects(t *testing.T) {
	p := New(Config{SecretKey: "sk_test_123", WebhookSecret: testWebhookSecret})
	now := time.Now()
	body, sig := signedNotification(t, EventPaymentIntentSucceeded, "pi_test_1", now)

	t.Run("missing header", func(t *testing.T) {
		_, err := p.VerifyNotification(body, "")
		assert.True(t, provider.IsInvalidSignature(err), "got %v", err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := p.VerifyNotification(body, SignPayload(body, "whsec_other", now))
		assert.True(t, provider.IsInvalidSignature(err), "got %v", err)
	})

	t.Run("tampered body", func(t *testing.T) {
		tampered, _ := signedNotification(t, EventPaymentIntentSucceeded, "pi_test_2", now)
		_, err := p.VerifyNotification(tampered, sig)
		assert.True(t, provider.IsInvalidSignature(err), "got %v", err)
	})

	t.Run("too old", func(t *testing.T) {
		old := now.Add(-10 * time.Minute)
		oldBody, oldSig := signedNotification(t, EventPaymentIntentSucceeded, "pi_test_1", old)
		_, err := p.VerifyNotification(oldBody, oldSig)
		assert.True(t, provider.IsInvalidSignature(err), "got %v", err)
	})

	t.Run("no secret configured", func(t *testing.T) {
		unconfigured := New(Config{SecretKey: "sk_test_123"})
		_, err := unconfigured.VerifyNotification(body, sig)
		assert.True(t, provider.IsInvalidSignature(err), "got %v", err)
	})

	t.Run("signed garbage", func(t *testing.T) {
		garbage := []byte("not json")
		_, err := p.VerifyNotification(garbage, SignPayload(garbage, testWebhookSecret, now))
		var pe *provider.ProviderError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, provider.ErrInvalidPayload, pe.Code)
	})

	t.Run("outcome without payment intent", func(t *testing.T) {
		raw := []byte(`{"id":"evt_x","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"cus_1","object":"customer"}}}`)
		_, err := p.VerifyNotification(raw, SignPayload(raw, testWebhookSecret, now))
		var pe *provider.ProviderError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, provider.ErrInvalidPayload, pe.Code)
	})
}
