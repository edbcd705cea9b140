package services

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atozservice/api/internal/domain"
)

var (
	// ErrCartInvalidInput indicates the caller supplied invalid cart input.
	ErrCartInvalidInput = errors.New("cart store: invalid input")

	errCartClockRequired = errors.New("cart store: clock is required")
)

// CartStore holds per-user in-memory session carts. Lines with the same
// category, sub-category and item label aggregate into one entry; a quantity
// of zero or below removes the line.
type CartStore interface {
	AddOrIncrement(userID string, key domain.LineItemKey, qtyDelta int, unitPrice int64, iconRef string) error
	SetQuantity(userID string, key domain.LineItemKey, qty int, unitPrice int64, iconRef string) error
	Snapshot(userID string) domain.CartSnapshot
	Total(userID string) int64
	Clear(userID string)
}

// CartStoreDeps wires CartStore construction.
type CartStoreDeps struct {
	Clock func() time.Time
}

type memoryCartStore struct {
	now func() time.Time

	mu    sync.Mutex
	carts map[string]map[domain.LineItemKey]domain.CartLine
}

// NewCartStore constructs the in-memory CartStore.
func NewCartStore(deps CartStoreDeps) (CartStore, error) {
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}
	return &memoryCartStore{
		now:   func() time.Time { return deps.Clock().UTC() },
		carts: make(map[string]map[domain.LineItemKey]domain.CartLine),
	}, nil
}

// AddOrIncrement aggregates the delta into an existing line, retaining the
// stored unit price and icon. A decrement against a missing line is a no-op;
// a resulting quantity of zero or below removes the line.
func (s *memoryCartStore) AddOrIncrement(userID string, key domain.LineItemKey, qtyDelta int, unitPrice int64, iconRef string) error {
	uid := strings.TrimSpace(userID)
	normalised := key.Normalise()
	if uid == "" || normalised.IsZero() || unitPrice < 0 {
		return ErrCartInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.carts[uid]
	line, exists := cart[normalised]
	if !exists {
		if qtyDelta <= 0 {
			return nil
		}
		if cart == nil {
			cart = make(map[domain.LineItemKey]domain.CartLine)
			s.carts[uid] = cart
		}
		cart[normalised] = domain.CartLine{
			Key:       normalised,
			Quantity:  qtyDelta,
			UnitPrice: unitPrice,
			IconRef:   iconRef,
		}
		return nil
	}

	line.Quantity += qtyDelta
	if line.Quantity <= 0 {
		delete(cart, normalised)
		if len(cart) == 0 {
			delete(s.carts, uid)
		}
		return nil
	}
	cart[normalised] = line
	return nil
}

// SetQuantity overwrites the whole line, unit price and icon included; a
// quantity of zero or below removes it.
func (s *memoryCartStore) SetQuantity(userID string, key domain.LineItemKey, qty int, unitPrice int64, iconRef string) error {
	uid := strings.TrimSpace(userID)
	normalised := key.Normalise()
	if uid == "" || normalised.IsZero() || unitPrice < 0 {
		return ErrCartInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.carts[uid]
	if qty <= 0 {
		delete(cart, normalised)
		if len(cart) == 0 {
			delete(s.carts, uid)
		}
		return nil
	}

	if cart == nil {
		cart = make(map[domain.LineItemKey]domain.CartLine)
		s.carts[uid] = cart
	}
	cart[normalised] = domain.CartLine{
		Key:       normalised,
		Quantity:  qty,
		UnitPrice: unitPrice,
		IconRef:   iconRef,
	}
	return nil
}

// Snapshot returns a stable-ordered deep copy of the user's cart. Later
// mutations to the live cart cannot affect the returned snapshot.
func (s *memoryCartStore) Snapshot(userID string) domain.CartSnapshot {
	uid := strings.TrimSpace(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.carts[uid]
	lines := make([]domain.CartLine, 0, len(cart))
	for _, line := range cart {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i].Key, lines[j].Key
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.SubCategory != b.SubCategory {
			return a.SubCategory < b.SubCategory
		}
		return a.ItemLabel < b.ItemLabel
	})

	return domain.CartSnapshot{Lines: lines, TakenAt: s.now()}
}

// Total sums quantity times unit price across the cart in paise.
func (s *memoryCartStore) Total(userID string) int64 {
	uid := strings.TrimSpace(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, line := range s.carts[uid] {
		total += line.LineTotal()
	}
	return total
}

// Clear drops every line for the user.
func (s *memoryCartStore) Clear(userID string) {
	uid := strings.TrimSpace(userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, uid)
}
