package services

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/atozservice/api/internal/domain"
)

var (
	// ErrNoPaymentHandler indicates no UPI payee is configured, so an intent
	// cannot be built.
	ErrNoPaymentHandler = errors.New("payment service: no payment handler configured")

	// ErrPaymentInvalidInput indicates the caller supplied invalid payment input.
	ErrPaymentInvalidInput = errors.New("payment service: invalid input")

	errPaymentCartRequired = errors.New("payment service: cart store is required")
)

// PaymentOutcome is the interpreted result of a UPI handler response.
type PaymentOutcome string

const (
	PaymentOutcomeSuccess   PaymentOutcome = "success"
	PaymentOutcomeFailure   PaymentOutcome = "failure"
	PaymentOutcomeCancelled PaymentOutcome = "cancelled"
)

// PaymentIntent is a UPI deep link plus the exact amount it encodes.
type PaymentIntent struct {
	URI    string
	Amount int64
}

// PaymentService builds UPI payment intents and interprets handler responses.
type PaymentService interface {
	// IntentForCart builds an intent covering the user's current cart total.
	IntentForCart(ctx context.Context, userID string) (PaymentIntent, error)
	// BuildIntent builds an intent for an explicit amount in paise.
	BuildIntent(amount int64) (PaymentIntent, error)
	// Interpret classifies the raw response string returned by the handler.
	Interpret(raw string) PaymentOutcome
}

// PaymentServiceDeps wires PaymentService construction.
type PaymentServiceDeps struct {
	Cart      CartStore
	PayeeID   string
	PayeeName string
	Note      string
	Logger    func(context.Context, string, map[string]any)
}

type paymentService struct {
	cart      CartStore
	payeeID   string
	payeeName string
	note      string
	logger    func(context.Context, string, map[string]any)
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Cart == nil {
		return nil, errPaymentCartRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &paymentService{
		cart:      deps.Cart,
		payeeID:   strings.TrimSpace(deps.PayeeID),
		payeeName: strings.TrimSpace(deps.PayeeName),
		note:      strings.TrimSpace(deps.Note),
		logger:    logger,
	}, nil
}

func (s *paymentService) IntentForCart(ctx context.Context, userID string) (PaymentIntent, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return PaymentIntent{}, ErrPaymentInvalidInput
	}

	total := s.cart.Total(uid)
	if total <= 0 {
		return PaymentIntent{}, ErrEmptyCart
	}

	intent, err := s.BuildIntent(total)
	if err != nil {
		return PaymentIntent{}, err
	}
	s.logger(ctx, "payment.intent_built", map[string]any{
		"userID": uid,
		"amount": total,
	})
	return intent, nil
}

// BuildIntent renders upi://pay?pa=..&pn=..&tn=..&am=..&cu=INR. The payee
// must be configured before any intent can be issued.
func (s *paymentService) BuildIntent(amount int64) (PaymentIntent, error) {
	if s.payeeID == "" {
		return PaymentIntent{}, ErrNoPaymentHandler
	}
	if amount <= 0 {
		return PaymentIntent{}, ErrPaymentInvalidInput
	}

	rupees := strconv.FormatFloat(domain.RupeesFromPaise(amount), 'f', 2, 64)

	var b strings.Builder
	b.WriteString("upi://pay?pa=")
	b.WriteString(upiEscape(s.payeeID))
	b.WriteString("&pn=")
	b.WriteString(upiEscape(s.payeeName))
	b.WriteString("&tn=")
	b.WriteString(upiEscape(s.note))
	b.WriteString("&am=")
	b.WriteString(rupees)
	b.WriteString("&cu=INR")

	return PaymentIntent{URI: b.String(), Amount: amount}, nil
}

// Interpret treats any response containing "success" (case-insensitive) as
// paid, explicit cancel markers as cancelled, and everything else, including
// an empty response, as failed.
func (s *paymentService) Interpret(raw string) PaymentOutcome {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case lowered == "":
		return PaymentOutcomeFailure
	case strings.Contains(lowered, "success"):
		return PaymentOutcomeSuccess
	case strings.Contains(lowered, "cancel"):
		return PaymentOutcomeCancelled
	default:
		return PaymentOutcomeFailure
	}
}

// upiEscape percent-encodes query values, keeping spaces as %20 the way UPI
// handlers expect.
func upiEscape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
