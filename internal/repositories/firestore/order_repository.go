package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"

	"github.com/atozservice/api/internal/domain"
	platformfs "github.com/atozservice/api/internal/platform/firestore"
)

const orderIDPrefix = "ord_"

// orderDocument mirrors the users/{userId}/orders/{orderId} schema. Amounts
// are stored as rupee numbers, timestamps as epoch milliseconds.
type orderDocument struct {
	Items       []orderItemDocument `firestore:"items"`
	TotalAmount float64             `firestore:"totalAmount"`
	Timestamp   int64               `firestore:"timestamp"`
	Status      string              `firestore:"status"`
	PaymentType string              `firestore:"paymentType"`
	Location    string              `firestore:"location"`
}

type orderItemDocument struct {
	MainService string  `firestore:"mainService"`
	SubService  string  `firestore:"subService"`
	Icon        string  `firestore:"icon"`
	ItemType    string  `firestore:"itemType"`
	Quantity    int64   `firestore:"quantity"`
	ItemPrice   float64 `firestore:"itemPrice"`
}

// OrderRepository stores orders in per-user Firestore subcollections.
type OrderRepository struct {
	base       *platformfs.BaseRepository[orderDocument]
	timeout    time.Duration
	generateID func() string
}

// OrderRepositoryOption customises repository behaviour.
type OrderRepositoryOption func(*OrderRepository)

// WithOrderTimeout bounds each Firestore call; a deadline hit surfaces as an
// unavailable repository error rather than a caller cancellation.
func WithOrderTimeout(d time.Duration) OrderRepositoryOption {
	return func(r *OrderRepository) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithOrderIDGenerator overrides document ID generation, primarily for tests.
func WithOrderIDGenerator(gen func() string) OrderRepositoryOption {
	return func(r *OrderRepository) {
		if gen != nil {
			r.generateID = gen
		}
	}
}

// NewOrderRepository binds an OrderRepository to the provider.
func NewOrderRepository(provider *platformfs.Provider, opts ...OrderRepositoryOption) *OrderRepository {
	repo := &OrderRepository{
		base: platformfs.NewBaseRepository[orderDocument](
			provider, "orders", platformfs.UserSubcollection("orders"), nil, nil),
		timeout:    10 * time.Second,
		generateID: func() string { return orderIDPrefix + ulid.Make().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

// Place writes a fresh order document and returns its assigned ID.
func (r *OrderRepository) Place(ctx context.Context, userID string, order domain.Order) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", platformfs.Unavailable("orders.place", errors.New("user id is required"))
	}

	orderID := order.ID
	if strings.TrimSpace(orderID) == "" {
		orderID = r.generateID()
	}

	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	_, err := r.base.Set(callCtx, userID, orderID, encodeOrder(order))
	if err != nil {
		return "", r.classify(ctx, "orders.place", err)
	}
	return orderID, nil
}

// Update patches status, payment type, or total on an existing document. It
// never creates a document; a missing order surfaces as not-found.
func (r *OrderRepository) Update(ctx context.Context, userID, orderID string, patch domain.OrderPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	var updates []firestore.Update
	if patch.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: string(*patch.Status)})
	}
	if patch.PaymentMethod != nil {
		updates = append(updates, firestore.Update{Path: "paymentType", Value: string(*patch.PaymentMethod)})
	}
	if patch.TotalAmount != nil {
		updates = append(updates, firestore.Update{Path: "totalAmount", Value: domain.RupeesFromPaise(*patch.TotalAmount)})
	}

	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	if _, err := r.base.Update(callCtx, userID, orderID, updates); err != nil {
		return r.classify(ctx, "orders.update", err)
	}
	return nil
}

// List returns every order for the user, newest first.
func (r *OrderRepository) List(ctx context.Context, userID string) ([]domain.Order, error) {
	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	docs, err := r.base.Query(callCtx, userID, func(q firestore.Query) firestore.Query {
		return q.OrderBy("timestamp", firestore.Desc)
	})
	if err != nil {
		return nil, r.classify(ctx, "orders.list", err)
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrder(userID, doc.ID, doc.Data))
	}
	return orders, nil
}

// Get fetches a single order document.
func (r *OrderRepository) Get(ctx context.Context, userID, orderID string) (domain.Order, error) {
	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	doc, err := r.base.Get(callCtx, userID, orderID)
	if err != nil {
		return domain.Order{}, r.classify(ctx, "orders.get", err)
	}
	return decodeOrder(userID, doc.ID, doc.Data), nil
}

func (r *OrderRepository) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// classify turns a per-call deadline hit into an unavailable repository error
// while leaving genuine caller cancellations untouched.
func (r *OrderRepository) classify(parent context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return platformfs.Unavailable(op, err)
	}
	return err
}

func encodeOrder(order domain.Order) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, orderItemDocument{
			MainService: line.Key.Category,
			SubService:  line.Key.SubCategory,
			Icon:        line.IconRef,
			ItemType:    line.Key.ItemLabel,
			Quantity:    int64(line.Quantity),
			ItemPrice:   domain.RupeesFromPaise(line.UnitPrice),
		})
	}
	return orderDocument{
		Items:       items,
		TotalAmount: domain.RupeesFromPaise(order.TotalAmount),
		Timestamp:   order.PlacedAt.UnixMilli(),
		Status:      string(order.Status),
		PaymentType: string(order.PaymentMethod),
		Location:    order.DeliveryLocation,
	}
}

func decodeOrder(userID, orderID string, doc orderDocument) domain.Order {
	lines := make([]domain.CartLine, 0, len(doc.Items))
	for _, item := range doc.Items {
		lines = append(lines, domain.CartLine{
			Key: domain.LineItemKey{
				Category:    item.MainService,
				SubCategory: item.SubService,
				ItemLabel:   item.ItemType,
			},
			Quantity:  int(item.Quantity),
			UnitPrice: domain.PaiseFromRupees(item.ItemPrice),
			IconRef:   item.Icon,
		})
	}
	return domain.Order{
		ID:               orderID,
		UserID:           userID,
		Lines:            lines,
		TotalAmount:      domain.PaiseFromRupees(doc.TotalAmount),
		PaymentMethod:    domain.PaymentMethod(doc.PaymentType),
		DeliveryLocation: doc.Location,
		Status:           domain.OrderStatus(doc.Status),
		PlacedAt:         time.UnixMilli(doc.Timestamp).UTC(),
	}
}
