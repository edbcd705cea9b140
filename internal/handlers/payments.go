package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atozservice/api/internal/domain"
	"github.com/atozservice/api/internal/platform/httpx"
	"github.com/atozservice/api/internal/services"
)

// PaymentHandlers builds UPI intents for the caller's current cart.
type PaymentHandlers struct {
	payments services.PaymentService
}

// NewPaymentHandlers constructs PaymentHandlers.
func NewPaymentHandlers(payments services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{payments: payments}
}

// Routes registers the payment endpoints.
func (h *PaymentHandlers) Routes(r chi.Router) {
	r.Post("/intent", h.buildIntent)
}

type paymentIntentResponse struct {
	URI    string  `json:"uri"`
	Amount float64 `json:"amount"`
}

func (h *PaymentHandlers) buildIntent(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	intent, err := h.payments.IntentForCart(r.Context(), identity.UID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, paymentIntentResponse{
		URI:    intent.URI,
		Amount: domain.RupeesFromPaise(intent.Amount),
	})
}
