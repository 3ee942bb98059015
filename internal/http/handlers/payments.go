package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	paymentsvc "paysync/internal/services/payment"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type createPaymentReq struct {
	Name   string        `json:"name"`
	Email  string        `json:"email"`
	Amount decimalString `json:"amount"`
}

// decimalString takes the amount verbatim, from a JSON number or string,
// so it never passes through float64. The service parses it.
type decimalString string

func (d *decimalString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = decimalString(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*d = decimalString(n)
	return nil
}

// CreatePayment opens a processor attempt and answers with the client secret
// and attempt ID. The attempt is registered before the response is written.
func CreatePayment(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in createPaymentReq
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10))
		if err := dec.Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "unexpected data after JSON body")
			return
		}

		out, err := svc.CreateAttempt(r.Context(), paymentsvc.CreateAttemptInput{
			Name:   in.Name,
			Email:  in.Email,
			Amount: string(in.Amount),
		})
		if err != nil {
			var verr *paymentsvc.ValidationError
			switch {
			case errors.As(err, &verr):
				writeError(w, http.StatusBadRequest, verr.Error())
			default:
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("create payment failed")
				writeError(w, http.StatusInternalServerError, "payment failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// PaymentStatus reports the current status; unknown IDs read as pending
func PaymentStatus(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing attempt id")
			return
		}

		status, err := svc.Status(r.Context(), id)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("attempt_id", id).Msg("status lookup failed")
			writeError(w, http.StatusInternalServerError, "status lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": status})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}
