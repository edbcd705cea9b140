package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atozservice/api/internal/domain"
	"github.com/atozservice/api/internal/repositories"
)

var (
	// ErrBookingInvalidInput indicates a booking failed validation before any
	// remote call was made.
	ErrBookingInvalidInput = errors.New("profile service: invalid booking")

	// ErrProfileNotFound indicates the profile document does not exist.
	ErrProfileNotFound = errors.New("profile service: not found")

	// ErrProfileUnavailable indicates a backend failure saving or loading.
	ErrProfileUnavailable = errors.New("profile service: unavailable")

	errProfileRepoRequired = errors.New("profile service: repository is required")
)

// ProfileService manages the per-user profile document and its append-only
// service request history.
type ProfileService interface {
	SaveServiceRequest(ctx context.Context, booking domain.ServiceBooking) error
	GetProfile(ctx context.Context, customerID string) (domain.UserProfile, error)
}

// ProfileServiceDeps wires the profile service collaborators.
type ProfileServiceDeps struct {
	Profiles repositories.ProfileRepository
	Logger   func(context.Context, string, map[string]any)
}

type profileService struct {
	profiles repositories.ProfileRepository
	logger   func(context.Context, string, map[string]any)
}

// NewProfileService constructs a ProfileService.
func NewProfileService(deps ProfileServiceDeps) (ProfileService, error) {
	if deps.Profiles == nil {
		return nil, errProfileRepoRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &profileService{profiles: deps.Profiles, logger: logger}, nil
}

// SaveServiceRequest appends the booking to the customer's profile. A missing
// customer id aborts locally before any remote call.
func (s *profileService) SaveServiceRequest(ctx context.Context, booking domain.ServiceBooking) error {
	booking = trimBooking(booking)
	if booking.CustomerID == "" {
		return fmt.Errorf("%w: customer id is required", ErrBookingInvalidInput)
	}
	if booking.ServiceType == "" {
		return fmt.Errorf("%w: service type is required", ErrBookingInvalidInput)
	}

	if err := s.profiles.AppendServiceRequest(ctx, booking); err != nil {
		s.logger(ctx, "profile.booking_save_failed", map[string]any{
			"customerID": booking.CustomerID,
			"error":      err.Error(),
		})
		return fmt.Errorf("%w: %s", ErrProfileUnavailable, err)
	}

	s.logger(ctx, "profile.booking_saved", map[string]any{
		"customerID":  booking.CustomerID,
		"serviceType": booking.ServiceType,
	})
	return nil
}

// GetProfile loads the profile document for the customer.
func (s *profileService) GetProfile(ctx context.Context, customerID string) (domain.UserProfile, error) {
	cid := strings.TrimSpace(customerID)
	if cid == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: customer id is required", ErrBookingInvalidInput)
	}

	profile, err := s.profiles.Get(ctx, cid)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.UserProfile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, cid)
		}
		return domain.UserProfile{}, fmt.Errorf("%w: %s", ErrProfileUnavailable, err)
	}
	return profile, nil
}

func trimBooking(booking domain.ServiceBooking) domain.ServiceBooking {
	booking.CustomerID = strings.TrimSpace(booking.CustomerID)
	booking.CustomerName = strings.TrimSpace(booking.CustomerName)
	booking.ServiceType = strings.TrimSpace(booking.ServiceType)
	booking.SubServiceType = strings.TrimSpace(booking.SubServiceType)
	booking.PreferredDateTime = strings.TrimSpace(booking.PreferredDateTime)
	booking.Street = strings.TrimSpace(booking.Street)
	booking.City = strings.TrimSpace(booking.City)
	booking.State = strings.TrimSpace(booking.State)
	booking.Country = strings.TrimSpace(booking.Country)
	booking.PinCode = strings.TrimSpace(booking.PinCode)
	return booking
}
