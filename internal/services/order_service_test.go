package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atozservice/api/internal/domain"
)

type orderServiceFixture struct {
	cart    CartStore
	repo    *stubOrderRepository
	events  *stubEventPublisher
	service OrderService
}

func newOrderServiceFixture(t *testing.T, repo *stubOrderRepository, opts ...func(*OrderServiceDeps)) *orderServiceFixture {
	t.Helper()
	now := time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cart, err := NewCartStore(CartStoreDeps{Clock: clock})
	if err != nil {
		t.Fatalf("unexpected error constructing cart store: %v", err)
	}
	builder, err := NewOrderBuilder(OrderBuilderDeps{Clock: clock})
	if err != nil {
		t.Fatalf("unexpected error constructing order builder: %v", err)
	}

	payments, err := NewPaymentService(PaymentServiceDeps{
		Cart:      cart,
		PayeeID:   "atoz@upi",
		PayeeName: "AtoZ Services",
		Note:      "Service Order",
	})
	if err != nil {
		t.Fatalf("unexpected error constructing payment service: %v", err)
	}

	events := &stubEventPublisher{}
	deps := OrderServiceDeps{
		Cart:     cart,
		Builder:  builder,
		Orders:   repo,
		Payments: payments,
		Events:   events,
		Clock:    clock,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	service, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("unexpected error constructing order service: %v", err)
	}
	return &orderServiceFixture{cart: cart, repo: repo, events: events, service: service}
}

func fillCart(t *testing.T, cart CartStore, userID string) {
	t.Helper()
	if err := cart.AddOrIncrement(userID, domain.LineItemKey{Category: "Cleaning", SubCategory: "Deep Clean", ItemLabel: "2BHK"}, 2, 9900, "icons/deep_clean"); err != nil {
		t.Fatalf("unexpected error filling cart: %v", err)
	}
	if err := cart.AddOrIncrement(userID, domain.LineItemKey{Category: "Plumbing", SubCategory: "Repair", ItemLabel: "Tap Fix"}, 1, 7250, ""); err != nil {
		t.Fatalf("unexpected error filling cart: %v", err)
	}
}

func TestOrderServiceSubmitPlacesFreshOrder(t *testing.T) {
	var placed []domain.Order
	repo := &stubOrderRepository{
		placeFunc: func(ctx context.Context, userID string, order domain.Order) (string, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id %q", userID)
			}
			placed = append(placed, order)
			return "ord_1", nil
		},
	}
	fx := newOrderServiceFixture(t, repo)
	fillCart(t, fx.cart, "user-1")

	var published []OrderEvent
	fx.events.publishFunc = func(ctx context.Context, event OrderEvent) error {
		published = append(published, event)
		return nil
	}

	result, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
		UserID:           "user-1",
		PaymentMethod:    domain.PaymentCashOnService,
		DeliveryLocation: "12 MG Road, Pune",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(placed) != 1 {
		t.Fatalf("expected exactly one gateway write, got %d", len(placed))
	}
	order := placed[0]
	if order.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected status Confirmed, got %q", order.Status)
	}
	if order.TotalAmount != 27050 {
		t.Fatalf("expected total 27050, got %d", order.TotalAmount)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Lines))
	}

	if result.OrderID != "ord_1" {
		t.Fatalf("expected order id ord_1, got %q", result.OrderID)
	}
	if !result.Notified {
		t.Fatalf("expected notified result")
	}
	if result.Total != 27050 {
		t.Fatalf("expected result total 27050, got %d", result.Total)
	}

	if total := fx.cart.Total("user-1"); total != 0 {
		t.Fatalf("expected cart cleared after placement, got total %d", total)
	}

	if len(published) != 1 || published[0].Type != OrderEventPlaced {
		t.Fatalf("expected one order.placed event, got %#v", published)
	}
	if published[0].OrderID != "ord_1" || published[0].UserID != "user-1" {
		t.Fatalf("unexpected event payload %#v", published[0])
	}
}

func TestOrderServiceSubmitEmptyCart(t *testing.T) {
	repo := &stubOrderRepository{
		placeFunc: func(ctx context.Context, userID string, order domain.Order) (string, error) {
			t.Fatalf("gateway must not be touched for an empty cart")
			return "", nil
		},
	}
	fx := newOrderServiceFixture(t, repo)

	_, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
		UserID:        "user-1",
		PaymentMethod: domain.PaymentCashOnService,
	})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestOrderServiceSubmitRejectsBlankUser(t *testing.T) {
	fx := newOrderServiceFixture(t, &stubOrderRepository{})

	_, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
		UserID:        "   ",
		PaymentMethod: domain.PaymentCashOnService,
	})
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
}

func TestOrderServiceSubmitInFlightGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	repo := &stubOrderRepository{
		placeFunc: func(ctx context.Context, userID string, order domain.Order) (string, error) {
			once.Do(func() { close(started) })
			<-release
			return "ord_1", nil
		},
	}
	fx := newOrderServiceFixture(t, repo)
	fillCart(t, fx.cart, "user-1")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
			UserID:        "user-1",
			PaymentMethod: domain.PaymentCashOnService,
		}); err != nil {
			t.Errorf("unexpected error from first submit: %v", err)
		}
	}()

	<-started
	_, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
		UserID:        "user-1",
		PaymentMethod: domain.PaymentCashOnService,
	})
	if !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(release)
	wg.Wait()

	// The guard is per user, so a later submission goes through again.
	fillCart(t, fx.cart, "user-1")
	if _, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
		UserID:        "user-1",
		PaymentMethod: domain.PaymentCashOnService,
	}); err != nil {
		t.Fatalf("expected guard released after completion, got %v", err)
	}
}

func TestOrderServiceOnlinePaymentDeclinedSkipsGateway(t *testing.T) {
	repo := &stubOrderRepository{
		placeFunc: func(ctx context.Context, userID string, order domain.Order) (string, error) {
			t.Fatalf("gateway must not be touched on a declined payment")
			return "", nil
		},
	}
	fx := newOrderServiceFixture(t, repo)
	fillCart(t, fx.cart, "user-1")

	_, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
		UserID:          "user-1",
		PaymentMethod:   domain.PaymentOnline,
		PaymentResponse: "Status=FAILURE",
	})
	if !errors.Is(err, ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}

	if total := fx.cart.Total("user-1"); total != 27050 {
		t.Fatalf("expected cart preserved after declined payment, got total %d", total)
	}
}

func TestOrderServiceOnlinePaymentCancelled(t *testing.T) {
	fx := newOrderServiceFixture(t, &stubOrderRepository{})
	fillCart(t, fx.cart, "user-1")

	_, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
		UserID:          "user-1",
		PaymentMethod:   domain.PaymentOnline,
		PaymentResponse: "user cancelled the payment",
	})
	if !errors.Is(err, ErrPaymentCancelled) {
		t.Fatalf("expected ErrPaymentCancelled, got %v", err)
	}
}

func TestOrderServiceOnlineEmptyResponseDeclined(t *testing.T) {
	repo := &stubOrderRepository{
		placeFunc: func(ctx context.Context, userID string, order domain.Order) (string, error) {
			t.Fatalf("gateway must not be touched without a payment confirmation")
			return "", nil
		},
	}
	fx := newOrderServiceFixture(t, repo)
	fillCart(t, fx.cart, "user-1")

	_, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
		UserID:        "user-1",
		PaymentMethod: domain.PaymentOnline,
	})
	if !errors.Is(err, ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}

	if total := fx.cart.Total("user-1"); total != 27050 {
		t.Fatalf("expected cart preserved, got total %d", total)
	}
}

func TestOrderServiceOnlinePaymentSuccessPlaces(t *testing.T) {
	placedMethod := domain.PaymentMethod("")
	repo := &stubOrderRepository{
		placeFunc: func(ctx context.Context, userID string, order domain.Order) (string, error) {
			placedMethod = order.PaymentMethod
			return "ord_2", nil
		},
	}
	fx := newOrderServiceFixture(t, repo)
	fillCart(t, fx.cart, "user-1")

	result, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
		UserID:          "user-1",
		PaymentMethod:   domain.PaymentOnline,
		PaymentResponse: "txnId=99&Status=SUCCESS",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if placedMethod != domain.PaymentOnline {
		t.Fatalf("expected online payment recorded, got %q", placedMethod)
	}
	if result.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected Confirmed status, got %q", result.Status)
	}
}

func TestOrderServiceSubmitUpdatesExistingOrder(t *testing.T) {
	var gotPatch domain.OrderPatch
	var gotOrderID string
	repo := &stubOrderRepository{
		updateFunc: func(ctx context.Context, userID, orderID string, patch domain.OrderPatch) error {
			gotOrderID = orderID
			gotPatch = patch
			return nil
		},
		placeFunc: func(ctx context.Context, userID string, order domain.Order) (string, error) {
			t.Fatalf("retry must patch, not place")
			return "", nil
		},
	}
	fx := newOrderServiceFixture(t, repo)
	fillCart(t, fx.cart, "user-1")

	var published []OrderEvent
	fx.events.publishFunc = func(ctx context.Context, event OrderEvent) error {
		published = append(published, event)
		return nil
	}

	result, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
		UserID:          "user-1",
		PaymentMethod:   domain.PaymentOnline,
		OrderID:         "ord_7",
		PaymentResponse: "SUCCESS",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotOrderID != "ord_7" {
		t.Fatalf("expected update against ord_7, got %q", gotOrderID)
	}
	if gotPatch.Status == nil || *gotPatch.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected status patch Confirmed, got %#v", gotPatch.Status)
	}
	if gotPatch.PaymentMethod == nil || *gotPatch.PaymentMethod != domain.PaymentOnline {
		t.Fatalf("expected payment method patch, got %#v", gotPatch.PaymentMethod)
	}

	if result.OrderID != "ord_7" || result.Status != domain.OrderStatusConfirmed {
		t.Fatalf("unexpected result %#v", result)
	}

	// Retrying an existing order must not drain the cart.
	if total := fx.cart.Total("user-1"); total != 27050 {
		t.Fatalf("expected cart preserved on retry, got total %d", total)
	}

	if len(published) != 1 || published[0].Type != OrderEventUpdated {
		t.Fatalf("expected one order.updated event, got %#v", published)
	}
}

func TestOrderServiceTranslatesRepositoryErrors(t *testing.T) {
	cases := []struct {
		name    string
		repoErr error
		want    error
	}{
		{"not found", &repositoryErrorStub{notFound: true}, ErrOrderNotFound},
		{"conflict", &repositoryErrorStub{conflict: true}, ErrOrderConflict},
		{"unavailable", &repositoryErrorStub{unavailable: true}, ErrOrderUnavailable},
		{"plain", errors.New("boom"), ErrOrderUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubOrderRepository{
				placeFunc: func(ctx context.Context, userID string, order domain.Order) (string, error) {
					return "", tc.repoErr
				},
			}
			fx := newOrderServiceFixture(t, repo)
			fillCart(t, fx.cart, "user-1")

			_, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
				UserID:        "user-1",
				PaymentMethod: domain.PaymentCashOnService,
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}

			if total := fx.cart.Total("user-1"); total != 27050 {
				t.Fatalf("expected cart preserved after failed placement, got total %d", total)
			}
		})
	}
}

func TestOrderServiceStaleCompletionSuppressesNotification(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := &stubOrderRepository{
		placeFunc: func(writeCtx context.Context, userID string, order domain.Order) (string, error) {
			// Caller goes away mid-write; the detached context keeps going.
			cancel()
			if writeCtx.Err() != nil {
				t.Fatalf("expected gateway write to survive caller cancellation")
			}
			return "ord_3", nil
		},
	}
	fx := newOrderServiceFixture(t, repo)
	fillCart(t, fx.cart, "user-1")

	result, err := fx.service.Submit(ctx, SubmitOrderCommand{
		UserID:        "user-1",
		PaymentMethod: domain.PaymentCashOnService,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Notified {
		t.Fatalf("expected notification suppressed for stale completion")
	}
	if result.OrderID != "ord_3" {
		t.Fatalf("expected order persisted with id ord_3, got %q", result.OrderID)
	}
	if total := fx.cart.Total("user-1"); total != 0 {
		t.Fatalf("expected cart cleared even on stale completion, got %d", total)
	}
}

func TestOrderServicePublishFailureIsNonFatal(t *testing.T) {
	repo := &stubOrderRepository{
		placeFunc: func(ctx context.Context, userID string, order domain.Order) (string, error) {
			return "ord_4", nil
		},
	}
	fx := newOrderServiceFixture(t, repo)
	fillCart(t, fx.cart, "user-1")
	fx.events.publishFunc = func(ctx context.Context, event OrderEvent) error {
		return errors.New("broker down")
	}

	result, err := fx.service.Submit(context.Background(), SubmitOrderCommand{
		UserID:        "user-1",
		PaymentMethod: domain.PaymentCashOnService,
	})
	if err != nil {
		t.Fatalf("expected publish failure swallowed, got %v", err)
	}
	if result.OrderID != "ord_4" {
		t.Fatalf("expected order id ord_4, got %q", result.OrderID)
	}
}

func TestOrderServiceListOrdersLenient(t *testing.T) {
	repo := &stubOrderRepository{
		listFunc: func(ctx context.Context, userID string) ([]domain.Order, error) {
			return nil, &repositoryErrorStub{unavailable: true, message: "backend down"}
		},
	}
	fx := newOrderServiceFixture(t, repo)

	orders := fx.service.ListOrders(context.Background(), "user-1")
	if orders == nil || len(orders) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", orders)
	}
}

func TestOrderServiceListOrders(t *testing.T) {
	placedAt := time.Date(2025, 6, 9, 18, 0, 0, 0, time.UTC)
	repo := &stubOrderRepository{
		listFunc: func(ctx context.Context, userID string) ([]domain.Order, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return []domain.Order{
				{ID: "ord_2", UserID: userID, TotalAmount: 5000, Status: domain.OrderStatusConfirmed, PlacedAt: placedAt},
				{ID: "ord_1", UserID: userID, TotalAmount: 3000, Status: domain.OrderStatusConfirmed, PlacedAt: placedAt.Add(-time.Hour)},
			}, nil
		},
	}
	fx := newOrderServiceFixture(t, repo)

	orders := fx.service.ListOrders(context.Background(), " user-1 ")
	if len(orders) != 2 || orders[0].ID != "ord_2" {
		t.Fatalf("expected 2 orders newest first, got %#v", orders)
	}
}
