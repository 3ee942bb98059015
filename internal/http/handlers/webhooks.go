package handlers

import (
	"errors"
	"io"
	"net/http"

	"paysync/internal/provider/stripe"
	eventsvc "paysync/internal/services/event"

	"github.com/rs/zerolog"
)

// Stripe documents 64 KiB as the ceiling for webhook bodies
const maxWebhookBody = int64(65536)

// StripeWebhook verifies and applies a processor notification. The body is
// read raw and handed over untouched; it is never decoded before verification.
func StripeWebhook(ingestor *eventsvc.Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable body")
			return
		}

		res, err := ingestor.Ingest(r.Context(), body, r.Header.Get(stripe.SignatureHeader))
		switch {
		case errors.Is(err, eventsvc.ErrInvalidSignature):
			logger.Warn().Err(err).
				Str("remote_addr", r.RemoteAddr).
				Str("security", "webhook_signature").
				Msg("rejected webhook with invalid signature")
			writeError(w, http.StatusBadRequest, "signature verification failed")
			return
		case errors.Is(err, eventsvc.ErrInvalidPayload):
			logger.Warn().Err(err).Msg("rejected webhook with invalid payload")
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		case err != nil:
			logger.Error().Err(err).Msg("webhook processing failed")
			writeError(w, http.StatusInternalServerError, "processing failed")
			return
		}

		logger.Debug().
			Str("event_id", res.EventID).
			Str("type", res.Type).
			Bool("applied", res.Applied).
			Bool("ignored", res.Ignored).
			Msg("webhook accepted")
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
	}
}
