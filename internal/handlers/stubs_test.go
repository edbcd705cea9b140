package handlers

import (
	"context"

	"github.com/atozservice/api/internal/domain"
	"github.com/atozservice/api/internal/services"
)

type stubOrderService struct {
	submitFunc func(ctx context.Context, cmd services.SubmitOrderCommand) (services.SubmitOrderResult, error)
	listFunc   func(ctx context.Context, userID string) []domain.Order
}

func (s *stubOrderService) Submit(ctx context.Context, cmd services.SubmitOrderCommand) (services.SubmitOrderResult, error) {
	if s.submitFunc == nil {
		return services.SubmitOrderResult{}, nil
	}
	return s.submitFunc(ctx, cmd)
}

func (s *stubOrderService) ListOrders(ctx context.Context, userID string) []domain.Order {
	if s.listFunc == nil {
		return []domain.Order{}
	}
	return s.listFunc(ctx, userID)
}

type stubPaymentService struct {
	intentForCartFunc func(ctx context.Context, userID string) (services.PaymentIntent, error)
	buildIntentFunc   func(amount int64) (services.PaymentIntent, error)
	interpretFunc     func(raw string) services.PaymentOutcome
}

func (s *stubPaymentService) IntentForCart(ctx context.Context, userID string) (services.PaymentIntent, error) {
	if s.intentForCartFunc == nil {
		return services.PaymentIntent{}, nil
	}
	return s.intentForCartFunc(ctx, userID)
}

func (s *stubPaymentService) BuildIntent(amount int64) (services.PaymentIntent, error) {
	if s.buildIntentFunc == nil {
		return services.PaymentIntent{}, nil
	}
	return s.buildIntentFunc(amount)
}

func (s *stubPaymentService) Interpret(raw string) services.PaymentOutcome {
	if s.interpretFunc == nil {
		return services.PaymentOutcomeFailure
	}
	return s.interpretFunc(raw)
}

type stubProfileService struct {
	saveFunc func(ctx context.Context, booking domain.ServiceBooking) error
	getFunc  func(ctx context.Context, customerID string) (domain.UserProfile, error)
}

func (s *stubProfileService) SaveServiceRequest(ctx context.Context, booking domain.ServiceBooking) error {
	if s.saveFunc == nil {
		return nil
	}
	return s.saveFunc(ctx, booking)
}

func (s *stubProfileService) GetProfile(ctx context.Context, customerID string) (domain.UserProfile, error) {
	if s.getFunc == nil {
		return domain.UserProfile{}, nil
	}
	return s.getFunc(ctx, customerID)
}
