package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atozservice/api/internal/domain"
	"github.com/atozservice/api/internal/repositories"
)

var (
	// ErrOrderUnavailable indicates the order could not be persisted due to a
	// backend failure. The cart is preserved so the user can retry.
	ErrOrderUnavailable = errors.New("order service: unavailable")

	// ErrOrderNotFound indicates the referenced order does not exist.
	ErrOrderNotFound = errors.New("order service: not found")

	// ErrOrderConflict indicates the order could not be updated due to a
	// conflicting write.
	ErrOrderConflict = errors.New("order service: conflict")

	// ErrSubmitInFlight indicates another submission for the same user is
	// still running.
	ErrSubmitInFlight = errors.New("order service: submission already in flight")

	// ErrPaymentDeclined indicates the payment handler reported failure.
	ErrPaymentDeclined = errors.New("order service: payment declined")

	// ErrPaymentCancelled indicates the user abandoned the payment.
	ErrPaymentCancelled = errors.New("order service: payment cancelled")

	errOrderCartRequired     = errors.New("order service: cart store is required")
	errOrderBuilderRequired  = errors.New("order service: order builder is required")
	errOrderRepoRequired     = errors.New("order service: order repository is required")
	errOrderPaymentsRequired = errors.New("order service: payment interpreter is required")
	errOrderClockRequired    = errors.New("order service: clock is required")
)

// OrderEvent describes a lifecycle change published after a gateway write.
type OrderEvent struct {
	Type    string
	UserID  string
	OrderID string
	Status  domain.OrderStatus
	Total   int64
	At      time.Time
}

// Event type values emitted by the order service.
const (
	OrderEventPlaced  = "order.placed"
	OrderEventUpdated = "order.updated"
)

// OrderEventPublisher delivers order events to interested consumers. Publish
// failures must never fail the order itself.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

type paymentInterpreter interface {
	Interpret(raw string) PaymentOutcome
}

// SubmitOrderCommand carries one order submission. OrderID is set when
// retrying an existing order instead of placing a fresh one.
// PaymentResponse is the raw UPI handler response for online payments.
type SubmitOrderCommand struct {
	UserID           string
	PaymentMethod    domain.PaymentMethod
	DeliveryLocation string
	OrderID          string
	PaymentResponse  string
}

// SubmitOrderResult reports the persisted outcome. Notified is false when
// the caller went away before the gateway write finished; the order is still
// persisted but the response should be suppressed.
type SubmitOrderResult struct {
	OrderID  string
	Status   domain.OrderStatus
	Total    int64
	Notified bool
}

// OrderService drives the order lifecycle from cart snapshot to persisted,
// confirmed order.
type OrderService interface {
	Submit(ctx context.Context, cmd SubmitOrderCommand) (SubmitOrderResult, error)
	ListOrders(ctx context.Context, userID string) []domain.Order
}

// OrderServiceDeps wires the order service collaborators.
type OrderServiceDeps struct {
	Cart     CartStore
	Builder  OrderBuilder
	Orders   repositories.OrderRepository
	Payments paymentInterpreter
	Events   OrderEventPublisher
	Clock    func() time.Time
	Logger   func(context.Context, string, map[string]any)
}

type orderService struct {
	cart     CartStore
	builder  OrderBuilder
	orders   repositories.OrderRepository
	payments paymentInterpreter
	events   OrderEventPublisher
	now      func() time.Time
	logger   func(context.Context, string, map[string]any)

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Cart == nil {
		return nil, errOrderCartRequired
	}
	if deps.Builder == nil {
		return nil, errOrderBuilderRequired
	}
	if deps.Orders == nil {
		return nil, errOrderRepoRequired
	}
	if deps.Payments == nil {
		return nil, errOrderPaymentsRequired
	}
	if deps.Clock == nil {
		return nil, errOrderClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		cart:     deps.Cart,
		builder:  deps.Builder,
		orders:   deps.Orders,
		payments: deps.Payments,
		events:   deps.Events,
		now:      func() time.Time { return deps.Clock().UTC() },
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}, nil
}

// Submit places a fresh order from the current cart, or patches an existing
// one when OrderID is set. Online payments are gated on a successful handler
// response before the gateway is touched. Exactly one gateway write happens
// per accepted submission, and the cart is cleared only after a successful
// fresh placement.
func (s *orderService) Submit(ctx context.Context, cmd SubmitOrderCommand) (SubmitOrderResult, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return SubmitOrderResult{}, ErrOrderInvalidInput
	}

	if !s.beginSubmit(uid) {
		return SubmitOrderResult{}, ErrSubmitInFlight
	}
	defer s.endSubmit(uid)

	if cmd.PaymentMethod == domain.PaymentOnline {
		switch s.payments.Interpret(cmd.PaymentResponse) {
		case PaymentOutcomeSuccess:
		case PaymentOutcomeCancelled:
			s.logger(ctx, "order.payment_cancelled", map[string]any{"userID": uid})
			return SubmitOrderResult{}, ErrPaymentCancelled
		default:
			s.logger(ctx, "order.payment_declined", map[string]any{"userID": uid})
			return SubmitOrderResult{}, ErrPaymentDeclined
		}
	}

	// The gateway write runs on a detached context so a caller that has gone
	// away cannot lose a persisted order.
	writeCtx := context.WithoutCancel(ctx)

	if orderID := strings.TrimSpace(cmd.OrderID); orderID != "" {
		return s.updateExisting(ctx, writeCtx, uid, orderID, cmd.PaymentMethod)
	}
	return s.placeFresh(ctx, writeCtx, uid, cmd)
}

func (s *orderService) placeFresh(ctx, writeCtx context.Context, uid string, cmd SubmitOrderCommand) (SubmitOrderResult, error) {
	snapshot := s.cart.Snapshot(uid)
	draft, err := s.builder.Build(snapshot, cmd.PaymentMethod, cmd.DeliveryLocation)
	if err != nil {
		return SubmitOrderResult{}, err
	}

	order := domain.Order{
		UserID:           uid,
		Lines:            draft.Lines,
		TotalAmount:      draft.TotalAmount,
		PaymentMethod:    draft.PaymentMethod,
		DeliveryLocation: draft.DeliveryLocation,
		Status:           domain.OrderStatusConfirmed,
		PlacedAt:         draft.CreatedAt,
	}

	orderID, err := s.orders.Place(writeCtx, uid, order)
	if err != nil {
		s.logger(ctx, "order.place_failed", map[string]any{
			"userID": uid,
			"error":  err.Error(),
		})
		return SubmitOrderResult{}, s.translateRepoError(err)
	}

	s.cart.Clear(uid)
	s.publish(writeCtx, OrderEvent{
		Type:    OrderEventPlaced,
		UserID:  uid,
		OrderID: orderID,
		Status:  order.Status,
		Total:   order.TotalAmount,
		At:      s.now(),
	})

	return s.finish(ctx, uid, SubmitOrderResult{
		OrderID: orderID,
		Status:  order.Status,
		Total:   order.TotalAmount,
	}), nil
}

func (s *orderService) updateExisting(ctx, writeCtx context.Context, uid, orderID string, method domain.PaymentMethod) (SubmitOrderResult, error) {
	status := domain.OrderStatusConfirmed
	patch := domain.OrderPatch{
		Status:        &status,
		PaymentMethod: &method,
	}

	if err := s.orders.Update(writeCtx, uid, orderID, patch); err != nil {
		s.logger(ctx, "order.update_failed", map[string]any{
			"userID":  uid,
			"orderID": orderID,
			"error":   err.Error(),
		})
		return SubmitOrderResult{}, s.translateRepoError(err)
	}

	s.publish(writeCtx, OrderEvent{
		Type:    OrderEventUpdated,
		UserID:  uid,
		OrderID: orderID,
		Status:  status,
		At:      s.now(),
	})

	return s.finish(ctx, uid, SubmitOrderResult{
		OrderID: orderID,
		Status:  status,
	}), nil
}

// finish marks the result stale when the caller context ended during the
// gateway write; the outcome is logged and UI notification suppressed.
func (s *orderService) finish(ctx context.Context, uid string, result SubmitOrderResult) SubmitOrderResult {
	result.Notified = ctx.Err() == nil
	if !result.Notified {
		s.logger(ctx, "order.completion_stale", map[string]any{
			"userID":  uid,
			"orderID": result.OrderID,
			"status":  string(result.Status),
		})
	}
	return result
}

// ListOrders returns the user's orders newest first. Gateway failures are
// logged and yield an empty list rather than an error.
func (s *orderService) ListOrders(ctx context.Context, userID string) []domain.Order {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return []domain.Order{}
	}

	orders, err := s.orders.List(ctx, uid)
	if err != nil {
		s.logger(ctx, "order.list_failed", map[string]any{
			"userID": uid,
			"error":  err.Error(),
		})
		return []domain.Order{}
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders
}

func (s *orderService) beginSubmit(uid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[uid]; busy {
		return false
	}
	s.inFlight[uid] = struct{}{}
	return true
}

func (s *orderService) endSubmit(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, uid)
}

func (s *orderService) publish(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event_publish_failed", map[string]any{
			"type":    event.Type,
			"orderID": event.OrderID,
			"error":   err.Error(),
		})
	}
}

func (s *orderService) translateRepoError(err error) error {
	switch {
	case repositories.IsNotFound(err):
		return fmt.Errorf("%w: %s", ErrOrderNotFound, err)
	case repositories.IsConflict(err):
		return fmt.Errorf("%w: %s", ErrOrderConflict, err)
	default:
		return fmt.Errorf("%w: %s", ErrOrderUnavailable, err)
	}
}
