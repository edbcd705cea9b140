package domain

import (
	"math"
	"strings"
	"time"
)

// PaymentMethod enumerates how an order is settled.
type PaymentMethod string

const (
	// PaymentCashOnService is settled in person when the service is delivered.
	PaymentCashOnService PaymentMethod = "Cash on Service"
	// PaymentOnline is settled up front through an external UPI handler.
	PaymentOnline PaymentMethod = "Online Payment"
)

// ParsePaymentMethod maps wire values onto the known payment methods.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cash on service", "cash_on_service", "cash":
		return PaymentCashOnService, true
	case "online payment", "online_payment", "online", "upi":
		return PaymentOnline, true
	default:
		return "", false
	}
}

// OrderStatus enumerates the persisted lifecycle states of an order document.
type OrderStatus string

const (
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusPendingPayment OrderStatus = "Pending Payment"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

// LineItemKey uniquely identifies one purchasable unit inside a service
// category. Equality is field-wise on trimmed values.
type LineItemKey struct {
	Category    string
	SubCategory string
	ItemLabel   string
}

// Normalise trims the key fields so equality is insensitive to stray spacing.
func (k LineItemKey) Normalise() LineItemKey {
	return LineItemKey{
		Category:    strings.TrimSpace(k.Category),
		SubCategory: strings.TrimSpace(k.SubCategory),
		ItemLabel:   strings.TrimSpace(k.ItemLabel),
	}
}

// IsZero reports whether every key field is empty after trimming.
func (k LineItemKey) IsZero() bool {
	n := k.Normalise()
	return n.Category == "" && n.SubCategory == "" && n.ItemLabel == ""
}

// CartLine is one orderable unit in the cart. UnitPrice is fixed-point paise;
// a line with Quantity <= 0 must never be stored.
type CartLine struct {
	Key       LineItemKey
	Quantity  int
	UnitPrice int64
	IconRef   string
}

// LineTotal returns quantity x unit price in paise.
func (l CartLine) LineTotal() int64 {
	if l.Quantity <= 0 || l.UnitPrice <= 0 {
		return 0
	}
	return l.UnitPrice * int64(l.Quantity)
}

// CartSnapshot is an immutable copy of the cart taken at draft-build time.
// Mutating the live cart afterwards cannot affect a snapshot.
type CartSnapshot struct {
	Lines   []CartLine
	TakenAt time.Time
}

// Total sums quantity x unit price across the snapshot in paise.
func (s CartSnapshot) Total() int64 {
	var total int64
	for _, line := range s.Lines {
		total += line.LineTotal()
	}
	return total
}

// OrderDraft is the immutable cart snapshot plus payment choice and delivery
// location, built once at placement time and never mutated afterwards.
type OrderDraft struct {
	Lines            []CartLine
	TotalAmount      int64
	PaymentMethod    PaymentMethod
	DeliveryLocation string
	CreatedAt        time.Time
}

// Order is a draft that has been written to the remote store and assigned an
// identifier. Status mutations go through the order repository patch path.
type Order struct {
	ID               string
	UserID           string
	Lines            []CartLine
	TotalAmount      int64
	PaymentMethod    PaymentMethod
	DeliveryLocation string
	Status           OrderStatus
	PlacedAt         time.Time
}

// OrderPatch carries the only fields the update path may modify. Nil fields
// are left untouched on the stored document.
type OrderPatch struct {
	Status        *OrderStatus
	PaymentMethod *PaymentMethod
	TotalAmount   *int64
}

// IsEmpty reports whether the patch carries no field changes.
func (p OrderPatch) IsEmpty() bool {
	return p.Status == nil && p.PaymentMethod == nil && p.TotalAmount == nil
}

// ServiceBooking captures a customer's booking request appended to the
// profile document's serviceRequests array.
type ServiceBooking struct {
	CustomerID        string
	CustomerName      string
	ServiceType       string
	SubServiceType    string
	PreferredDateTime string
	Street            string
	City              string
	State             string
	Country           string
	PinCode           string
}

// UserProfile is the top-level per-user document holding identity fields next
// to the append-only serviceRequests array.
type UserProfile struct {
	CustomerID      string
	Email           string
	ServiceRequests []ServiceBooking
}

// PaiseFromRupees converts a rupee amount from the wire into fixed-point
// paise, rounding half away from zero at the second decimal.
func PaiseFromRupees(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}

// RupeesFromPaise converts fixed-point paise back to the rupee number used by
// the document schema and the UPI amount parameter.
func RupeesFromPaise(paise int64) float64 {
	return float64(paise) / 100
}
