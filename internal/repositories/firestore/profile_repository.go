package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/atozservice/api/internal/domain"
	platformfs "github.com/atozservice/api/internal/platform/firestore"
)

// profileDocument mirrors the users/{customerId} document.
type profileDocument struct {
	CustomerID      string            `firestore:"customerId"`
	Email           string            `firestore:"email"`
	ServiceRequests []bookingDocument `firestore:"serviceRequests"`
}

type bookingDocument struct {
	CustomerID        string `firestore:"customerId"`
	CustomerName      string `firestore:"customerName"`
	ServiceType       string `firestore:"serviceType"`
	SubServiceType    string `firestore:"subServiceType"`
	PreferredDateTime string `firestore:"preferredDateTime"`
	Street            string `firestore:"street"`
	City              string `firestore:"city"`
	State             string `firestore:"state"`
	Country           string `firestore:"country"`
	PinCode           string `firestore:"pinCode"`
}

// ProfileRepository stores user profiles in the top-level users collection.
type ProfileRepository struct {
	base    *platformfs.BaseRepository[profileDocument]
	timeout time.Duration
}

// ProfileRepositoryOption customises repository behaviour.
type ProfileRepositoryOption func(*ProfileRepository)

// WithProfileTimeout bounds each Firestore call.
func WithProfileTimeout(d time.Duration) ProfileRepositoryOption {
	return func(r *ProfileRepository) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewProfileRepository binds a ProfileRepository to the provider.
func NewProfileRepository(provider *platformfs.Provider, opts ...ProfileRepositoryOption) *ProfileRepository {
	repo := &ProfileRepository{
		base: platformfs.NewBaseRepository[profileDocument](
			provider, "users", platformfs.RootCollection("users"), nil, nil),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

// AppendServiceRequest appends the booking to the profile's serviceRequests
// array. The merge write preserves every other field and never replaces
// earlier requests.
func (r *ProfileRepository) AppendServiceRequest(ctx context.Context, booking domain.ServiceBooking) error {
	customerID := strings.TrimSpace(booking.CustomerID)
	if customerID == "" {
		return platformfs.Unavailable("users.append_request", errors.New("customer id is required"))
	}

	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	ref, err := r.base.DocumentRef(callCtx, "", customerID)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"serviceRequests": firestore.ArrayUnion(encodeBooking(booking)),
	}
	if _, err := ref.Set(callCtx, payload, firestore.MergeAll); err != nil {
		return r.classify(ctx, "users.append_request", err)
	}
	return nil
}

// Get fetches the profile document for the customer.
func (r *ProfileRepository) Get(ctx context.Context, customerID string) (domain.UserProfile, error) {
	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	doc, err := r.base.Get(callCtx, "", customerID)
	if err != nil {
		return domain.UserProfile{}, r.classify(ctx, "users.get", err)
	}

	profile := domain.UserProfile{
		CustomerID: doc.Data.CustomerID,
		Email:      doc.Data.Email,
	}
	if profile.CustomerID == "" {
		profile.CustomerID = doc.ID
	}
	for _, request := range doc.Data.ServiceRequests {
		profile.ServiceRequests = append(profile.ServiceRequests, decodeBooking(request))
	}
	return profile, nil
}

func (r *ProfileRepository) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *ProfileRepository) classify(parent context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return platformfs.Unavailable(op, err)
	}
	return platformfs.WrapError(op, err)
}

// encodeBooking produces the map shape appended by ArrayUnion so stored
// entries stay comparable for dedup.
func encodeBooking(booking domain.ServiceBooking) map[string]any {
	return map[string]any{
		"customerId":        booking.CustomerID,
		"customerName":      booking.CustomerName,
		"serviceType":       booking.ServiceType,
		"subServiceType":    booking.SubServiceType,
		"preferredDateTime": booking.PreferredDateTime,
		"street":            booking.Street,
		"city":              booking.City,
		"state":             booking.State,
		"country":           booking.Country,
		"pinCode":           booking.PinCode,
	}
}

func decodeBooking(doc bookingDocument) domain.ServiceBooking {
	return domain.ServiceBooking{
		CustomerID:        doc.CustomerID,
		CustomerName:      doc.CustomerName,
		ServiceType:       doc.ServiceType,
		SubServiceType:    doc.SubServiceType,
		PreferredDateTime: doc.PreferredDateTime,
		Street:            doc.Street,
		City:              doc.City,
		State:             doc.State,
		Country:           doc.Country,
		PinCode:           doc.PinCode,
	}
}
