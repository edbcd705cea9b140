package firestore

import (
	"context"
	"errors"
	"time"

	"google.golang.org/api/iterator"

	platformfs "github.com/atozservice/api/internal/platform/firestore"
	"github.com/atozservice/api/internal/repositories"
)

// Registry wires the Firestore-backed repositories behind one provider.
type Registry struct {
	provider *platformfs.Provider
	orders   *OrderRepository
	profiles *ProfileRepository
	health   *HealthRepository
}

// NewRegistry builds the repository registry. requestTimeout bounds each
// Firestore call across all repositories.
func NewRegistry(provider *platformfs.Provider, requestTimeout time.Duration) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore: provider is required")
	}
	return &Registry{
		provider: provider,
		orders:   NewOrderRepository(provider, WithOrderTimeout(requestTimeout)),
		profiles: NewProfileRepository(provider, WithProfileTimeout(requestTimeout)),
		health:   &HealthRepository{provider: provider},
	}, nil
}

func (r *Registry) Orders() repositories.OrderRepository     { return r.orders }
func (r *Registry) Profiles() repositories.ProfileRepository { return r.profiles }
func (r *Registry) Health() repositories.HealthRepository    { return r.health }

// Close releases the shared Firestore client.
func (r *Registry) Close() error {
	return r.provider.Close()
}

// HealthRepository answers readiness probes with a cheap metadata read.
type HealthRepository struct {
	provider *platformfs.Provider
}

// Check verifies the Firestore connection is usable.
func (h *HealthRepository) Check(ctx context.Context) error {
	client, err := h.provider.Client(ctx)
	if err != nil {
		return err
	}
	it := client.Collections(ctx)
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return platformfs.WrapError("health.check", err)
	}
	return nil
}
