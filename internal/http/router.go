package httpx

import (
	"encoding/json"
	"net/http"

	"paysync/internal/http/handlers"
	middlewarex "paysync/internal/http/middleware"
	eventsvc "paysync/internal/services/event"
	paymentsvc "paysync/internal/services/payment"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDependencies holds all dependencies for the HTTP router
type RouterDependencies struct {
	PaymentService *paymentsvc.Service
	Ingestor       *eventsvc.Ingestor
	StoreBackend   string
}

// NewRouter creates the HTTP router
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(middlewarex.RequestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"store":  deps.StoreBackend,
		})
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/", handlers.CreatePayment(deps.PaymentService))
		r.Get("/{id}/status", handlers.PaymentStatus(deps.PaymentService))
	})

	// Webhook endpoints (public, authenticated by the processor signature)
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/stripe", handlers.StripeWebhook(deps.Ingestor))
	})

	return r
}
