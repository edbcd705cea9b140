package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atozservice/api/internal/domain"
	"github.com/atozservice/api/internal/platform/httpx"
	"github.com/atozservice/api/internal/services"
)

// BookingHandlers appends service requests to the caller's profile.
type BookingHandlers struct {
	profiles services.ProfileService
}

// NewBookingHandlers constructs BookingHandlers.
func NewBookingHandlers(profiles services.ProfileService) *BookingHandlers {
	return &BookingHandlers{profiles: profiles}
}

// Routes registers the booking endpoints.
func (h *BookingHandlers) Routes(r chi.Router) {
	r.Post("/", h.createBooking)
}

type bookingRequest struct {
	CustomerName      string `json:"customerName"`
	ServiceType       string `json:"serviceType"`
	SubServiceType    string `json:"subServiceType"`
	PreferredDateTime string `json:"preferredDateTime"`
	Street            string `json:"street"`
	City              string `json:"city"`
	State             string `json:"state"`
	Country           string `json:"country"`
	PinCode           string `json:"pinCode"`
}

func (h *BookingHandlers) createBooking(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req bookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_body", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	// Bookings are always written against the authenticated user's profile.
	err := h.profiles.SaveServiceRequest(r.Context(), domain.ServiceBooking{
		CustomerID:        identity.UID,
		CustomerName:      req.CustomerName,
		ServiceType:       req.ServiceType,
		SubServiceType:    req.SubServiceType,
		PreferredDateTime: req.PreferredDateTime,
		Street:            req.Street,
		City:              req.City,
		State:             req.State,
		Country:           req.Country,
		PinCode:           req.PinCode,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"status": "accepted"})
}
