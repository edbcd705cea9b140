package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atozservice/api/internal/domain"
	"github.com/atozservice/api/internal/platform/httpx"
	"github.com/atozservice/api/internal/services"
)

// CartHandlers exposes the session cart over HTTP. Monetary values cross the
// wire as rupee numbers and are held internally in paise.
type CartHandlers struct {
	cart services.CartStore
}

// NewCartHandlers constructs CartHandlers.
func NewCartHandlers(cart services.CartStore) *CartHandlers {
	return &CartHandlers{cart: cart}
}

// Routes registers the cart endpoints.
func (h *CartHandlers) Routes(r chi.Router) {
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Put("/items", h.setItem)
}

type cartItemRequest struct {
	Category    string  `json:"category"`
	SubCategory string  `json:"subCategory"`
	ItemLabel   string  `json:"itemLabel"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	IconRef     string  `json:"iconRef,omitempty"`
}

type cartItemResponse struct {
	Category    string  `json:"category"`
	SubCategory string  `json:"subCategory"`
	ItemLabel   string  `json:"itemLabel"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	IconRef     string  `json:"iconRef,omitempty"`
	LineTotal   float64 `json:"lineTotal"`
}

type cartResponse struct {
	Items []cartItemResponse `json:"items"`
	Total float64            `json:"total"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCartResponse(h.cart.Snapshot(identity.UID)))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_body", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	err := h.cart.AddOrIncrement(identity.UID, domain.LineItemKey{
		Category:    req.Category,
		SubCategory: req.SubCategory,
		ItemLabel:   req.ItemLabel,
	}, req.Quantity, domain.PaiseFromRupees(req.UnitPrice), req.IconRef)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCartResponse(h.cart.Snapshot(identity.UID)))
}

func (h *CartHandlers) setItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_body", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	err := h.cart.SetQuantity(identity.UID, domain.LineItemKey{
		Category:    req.Category,
		SubCategory: req.SubCategory,
		ItemLabel:   req.ItemLabel,
	}, req.Quantity, domain.PaiseFromRupees(req.UnitPrice), req.IconRef)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCartResponse(h.cart.Snapshot(identity.UID)))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	h.cart.Clear(identity.UID)
	httpx.WriteJSON(w, http.StatusOK, toCartResponse(h.cart.Snapshot(identity.UID)))
}

func toCartResponse(snapshot domain.CartSnapshot) cartResponse {
	items := make([]cartItemResponse, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		items = append(items, cartItemResponse{
			Category:    line.Key.Category,
			SubCategory: line.Key.SubCategory,
			ItemLabel:   line.Key.ItemLabel,
			Quantity:    line.Quantity,
			UnitPrice:   domain.RupeesFromPaise(line.UnitPrice),
			IconRef:     line.IconRef,
			LineTotal:   domain.RupeesFromPaise(line.LineTotal()),
		})
	}
	return cartResponse{
		Items: items,
		Total: domain.RupeesFromPaise(snapshot.Total()),
	}
}
