package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atozservice/api/internal/platform/config"
	"github.com/atozservice/api/internal/platform/observability"
	"github.com/atozservice/api/internal/repositories"
	"github.com/atozservice/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Cart     services.CartStore
	Orders   services.OrderService
	Payments services.PaymentService
	Profiles services.ProfileService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// ContainerDeps carries the externally-constructed collaborators.
type ContainerDeps struct {
	Config   config.Config
	Registry repositories.Registry
	Events   services.OrderEventPublisher
	Logger   *zap.Logger
	Clock    func() time.Time
}

// NewContainer assembles the runtime dependencies. Tests can supply stub
// registries and publishers.
func NewContainer(deps ContainerDeps) (*Container, error) {
	if deps.Registry == nil {
		return nil, errors.New("di: repositories registry is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	eventLog := observability.EventLogger(deps.Logger)

	cart, err := services.NewCartStore(services.CartStoreDeps{Clock: clock})
	if err != nil {
		return nil, fmt.Errorf("di: build cart store: %w", err)
	}

	builder, err := services.NewOrderBuilder(services.OrderBuilderDeps{Clock: clock})
	if err != nil {
		return nil, fmt.Errorf("di: build order builder: %w", err)
	}

	payments, err := services.NewPaymentService(services.PaymentServiceDeps{
		Cart:      cart,
		PayeeID:   deps.Config.Payments.UPIPayeeID,
		PayeeName: deps.Config.Payments.UPIPayeeName,
		Note:      deps.Config.Payments.Note,
		Logger:    eventLog,
	})
	if err != nil {
		return nil, fmt.Errorf("di: build payment service: %w", err)
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Cart:     cart,
		Builder:  builder,
		Orders:   deps.Registry.Orders(),
		Payments: payments,
		Events:   deps.Events,
		Clock:    clock,
		Logger:   eventLog,
	})
	if err != nil {
		return nil, fmt.Errorf("di: build order service: %w", err)
	}

	profiles, err := services.NewProfileService(services.ProfileServiceDeps{
		Profiles: deps.Registry.Profiles(),
		Logger:   eventLog,
	})
	if err != nil {
		return nil, fmt.Errorf("di: build profile service: %w", err)
	}

	return &Container{
		Config:       deps.Config,
		Repositories: deps.Registry,
		Services: Services{
			Cart:     cart,
			Orders:   orders,
			Payments: payments,
			Profiles: profiles,
		},
	}, nil
}

// Close releases repository-held resources.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close()
}
