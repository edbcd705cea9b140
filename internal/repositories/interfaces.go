package repositories

import (
	"context"
	"errors"

	"github.com/atozservice/api/internal/domain"
)

// Registry exposes typed repository accessors for dependency injection.
type Registry interface {
	Close() error

	Orders() OrderRepository
	Profiles() ProfileRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with the
// categorisation the service layer branches on.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// IsNotFound reports whether err categorises as a missing document.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// IsConflict reports whether err categorises as a conflicting write.
func IsConflict(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

// IsUnavailable reports whether err categorises as a transient outage.
func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}

// OrderRepository persists per-user order documents.
type OrderRepository interface {
	// Place writes a fresh order document and returns the assigned ID.
	Place(ctx context.Context, userID string, order domain.Order) (string, error)
	// Update patches an existing order; it never creates a document.
	Update(ctx context.Context, userID, orderID string, patch domain.OrderPatch) error
	// List returns all orders for the user, most recent first.
	List(ctx context.Context, userID string) ([]domain.Order, error)
	// Get fetches one order document.
	Get(ctx context.Context, userID, orderID string) (domain.Order, error)
}

// ProfileRepository persists user profile documents and their append-only
// service request history.
type ProfileRepository interface {
	AppendServiceRequest(ctx context.Context, booking domain.ServiceBooking) error
	Get(ctx context.Context, customerID string) (domain.UserProfile, error)
}

// HealthRepository answers readiness probes against the backing store.
type HealthRepository interface {
	Check(ctx context.Context) error
}
