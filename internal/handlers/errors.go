package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/atozservice/api/internal/platform/auth"
	"github.com/atozservice/api/internal/platform/httpx"
	"github.com/atozservice/api/internal/services"
)

// writeServiceError maps service-layer sentinel errors onto the canonical
// HTTP error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput),
		errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrPaymentInvalidInput),
		errors.Is(err, services.ErrBookingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("empty_cart", "cart is empty", http.StatusBadRequest))
	case errors.Is(err, services.ErrNoPaymentHandler):
		httpx.WriteError(ctx, w, httpx.NewError("no_payment_handler", "no payment handler configured", http.StatusPaymentRequired))
	case errors.Is(err, services.ErrPaymentDeclined):
		httpx.WriteError(ctx, w, httpx.NewError("payment_declined", "payment was not successful", http.StatusPaymentRequired))
	case errors.Is(err, services.ErrPaymentCancelled):
		httpx.WriteError(ctx, w, httpx.NewError("payment_cancelled", "payment was cancelled", http.StatusPaymentRequired))
	case errors.Is(err, services.ErrSubmitInFlight):
		httpx.WriteError(ctx, w, httpx.NewError("submission_in_flight", "an order submission is already in progress", http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProfileNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrOrderUnavailable),
		errors.Is(err, services.ErrProfileUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("upstream_unavailable", err.Error(), http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
	}
}

// requireIdentity extracts the authenticated user, failing the request with
// 401 when absent.
func requireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}
