package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandlersHealthz(t *testing.T) {
	handler := NewHealthHandlers()

	rr := httptest.NewRecorder()
	handler.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestHealthHandlersReadyzAllChecksPass(t *testing.T) {
	called := 0
	handler := NewHealthHandlers(WithReadinessChecks(
		func(ctx context.Context) error { called++; return nil },
		func(ctx context.Context) error { called++; return nil },
	))

	rr := httptest.NewRecorder()
	handler.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if called != 2 {
		t.Fatalf("expected both checks run, got %d", called)
	}
}

func TestHealthHandlersReadyzFailingCheck(t *testing.T) {
	handler := NewHealthHandlers(WithReadinessChecks(
		func(ctx context.Context) error { return errors.New("firestore unreachable") },
	))

	rr := httptest.NewRecorder()
	handler.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}
