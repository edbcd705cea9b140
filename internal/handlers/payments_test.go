package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/atozservice/api/internal/services"
)

func newPaymentTestRouter(service *stubPaymentService) chi.Router {
	router := chi.NewRouter()
	router.Route("/payments", NewPaymentHandlers(service).Routes)
	return router
}

func TestPaymentHandlersBuildIntent(t *testing.T) {
	service := &stubPaymentService{
		intentForCartFunc: func(ctx context.Context, userID string) (services.PaymentIntent, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return services.PaymentIntent{
				URI:    "upi://pay?pa=atoz%40upi&pn=AtoZ%20Home%20Services&tn=Service%20Order&am=270.50&cu=INR",
				Amount: 27050,
			}, nil
		},
	}
	router := newPaymentTestRouter(service)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/payments/intent", "", "user-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp paymentIntentResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Amount != 270.50 {
		t.Fatalf("expected amount 270.50 rupees, got %v", resp.Amount)
	}
	if resp.URI == "" || resp.URI[:10] != "upi://pay?" {
		t.Fatalf("unexpected URI %q", resp.URI)
	}
}

func TestPaymentHandlersBuildIntentEmptyCart(t *testing.T) {
	service := &stubPaymentService{
		intentForCartFunc: func(ctx context.Context, userID string) (services.PaymentIntent, error) {
			return services.PaymentIntent{}, services.ErrEmptyCart
		},
	}
	router := newPaymentTestRouter(service)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/payments/intent", "", "user-1"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestPaymentHandlersBuildIntentNoHandler(t *testing.T) {
	service := &stubPaymentService{
		intentForCartFunc: func(ctx context.Context, userID string) (services.PaymentIntent, error) {
			return services.PaymentIntent{}, services.ErrNoPaymentHandler
		},
	}
	router := newPaymentTestRouter(service)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/payments/intent", "", "user-1"))
	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("expected status 402, got %d", rr.Code)
	}
}

func TestPaymentHandlersUnauthenticated(t *testing.T) {
	router := newPaymentTestRouter(&stubPaymentService{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/payments/intent", "", ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}
