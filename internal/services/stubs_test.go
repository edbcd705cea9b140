package services

import (
	"context"

	"github.com/atozservice/api/internal/domain"
)

type stubOrderRepository struct {
	placeFunc  func(ctx context.Context, userID string, order domain.Order) (string, error)
	updateFunc func(ctx context.Context, userID, orderID string, patch domain.OrderPatch) error
	listFunc   func(ctx context.Context, userID string) ([]domain.Order, error)
	getFunc    func(ctx context.Context, userID, orderID string) (domain.Order, error)
}

func (s *stubOrderRepository) Place(ctx context.Context, userID string, order domain.Order) (string, error) {
	if s.placeFunc == nil {
		return "", nil
	}
	return s.placeFunc(ctx, userID, order)
}

func (s *stubOrderRepository) Update(ctx context.Context, userID, orderID string, patch domain.OrderPatch) error {
	if s.updateFunc == nil {
		return nil
	}
	return s.updateFunc(ctx, userID, orderID, patch)
}

func (s *stubOrderRepository) List(ctx context.Context, userID string) ([]domain.Order, error) {
	if s.listFunc == nil {
		return nil, nil
	}
	return s.listFunc(ctx, userID)
}

func (s *stubOrderRepository) Get(ctx context.Context, userID, orderID string) (domain.Order, error) {
	if s.getFunc == nil {
		return domain.Order{}, nil
	}
	return s.getFunc(ctx, userID, orderID)
}

type stubProfileRepository struct {
	appendFunc func(ctx context.Context, booking domain.ServiceBooking) error
	getFunc    func(ctx context.Context, customerID string) (domain.UserProfile, error)
}

func (s *stubProfileRepository) AppendServiceRequest(ctx context.Context, booking domain.ServiceBooking) error {
	if s.appendFunc == nil {
		return nil
	}
	return s.appendFunc(ctx, booking)
}

func (s *stubProfileRepository) Get(ctx context.Context, customerID string) (domain.UserProfile, error) {
	if s.getFunc == nil {
		return domain.UserProfile{}, nil
	}
	return s.getFunc(ctx, customerID)
}

type stubEventPublisher struct {
	publishFunc func(ctx context.Context, event OrderEvent) error
}

func (s *stubEventPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	if s.publishFunc == nil {
		return nil
	}
	return s.publishFunc(ctx, event)
}

type repositoryErrorStub struct {
	message     string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repositoryErrorStub) Error() string {
	if e.message == "" {
		return "repository error"
	}
	return e.message
}

func (e *repositoryErrorStub) IsNotFound() bool    { return e.notFound }
func (e *repositoryErrorStub) IsConflict() bool    { return e.conflict }
func (e *repositoryErrorStub) IsUnavailable() bool { return e.unavailable }
