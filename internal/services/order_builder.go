package services

import (
	"errors"
	"strings"
	"time"

	"github.com/atozservice/api/internal/domain"
)

var (
	// ErrEmptyCart indicates an order was requested against an empty cart.
	ErrEmptyCart = errors.New("order builder: cart is empty")

	// ErrOrderInvalidInput indicates the caller supplied invalid order input.
	ErrOrderInvalidInput = errors.New("order builder: invalid input")

	errBuilderClockRequired = errors.New("order builder: clock is required")
)

// OrderBuilder converts a cart snapshot into an immutable order draft.
type OrderBuilder interface {
	Build(snapshot domain.CartSnapshot, method domain.PaymentMethod, deliveryLocation string) (domain.OrderDraft, error)
}

// OrderBuilderDeps wires OrderBuilder construction.
type OrderBuilderDeps struct {
	Clock func() time.Time
}

type orderBuilder struct {
	now func() time.Time
}

// NewOrderBuilder constructs an OrderBuilder.
func NewOrderBuilder(deps OrderBuilderDeps) (OrderBuilder, error) {
	if deps.Clock == nil {
		return nil, errBuilderClockRequired
	}
	return &orderBuilder{now: func() time.Time { return deps.Clock().UTC() }}, nil
}

// Build validates the payment method, copies the snapshot lines, and
// recomputes the total from the snapshot. The caller-supplied total is never
// trusted. An empty snapshot fails with ErrEmptyCart and no side effects.
func (b *orderBuilder) Build(snapshot domain.CartSnapshot, method domain.PaymentMethod, deliveryLocation string) (domain.OrderDraft, error) {
	switch method {
	case domain.PaymentCashOnService, domain.PaymentOnline:
	default:
		return domain.OrderDraft{}, ErrOrderInvalidInput
	}

	if len(snapshot.Lines) == 0 {
		return domain.OrderDraft{}, ErrEmptyCart
	}

	lines := make([]domain.CartLine, len(snapshot.Lines))
	copy(lines, snapshot.Lines)
	for _, line := range lines {
		if line.Quantity <= 0 || line.UnitPrice < 0 || line.Key.IsZero() {
			return domain.OrderDraft{}, ErrOrderInvalidInput
		}
	}

	return domain.OrderDraft{
		Lines:            lines,
		TotalAmount:      snapshot.Total(),
		PaymentMethod:    method,
		DeliveryLocation: strings.TrimSpace(deliveryLocation),
		CreatedAt:        b.now(),
	}, nil
}
