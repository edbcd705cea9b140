package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atozservice/api/internal/domain"
	"github.com/atozservice/api/internal/platform/httpx"
	"github.com/atozservice/api/internal/services"
)

// OrderHandlers exposes order placement and history over HTTP.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs OrderHandlers.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the order endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	r.Post("/", h.submitOrder)
	r.Get("/", h.listOrders)
}

type submitOrderRequest struct {
	PaymentMethod    string `json:"paymentMethod"`
	DeliveryLocation string `json:"deliveryLocation"`
	OrderID          string `json:"orderId,omitempty"`
	PaymentResponse  string `json:"paymentResponse,omitempty"`
}

type submitOrderResponse struct {
	OrderID string  `json:"orderId"`
	Status  string  `json:"status"`
	Total   float64 `json:"total"`
}

type orderItemResponse struct {
	MainService string  `json:"mainService"`
	SubService  string  `json:"subService"`
	ItemType    string  `json:"itemType"`
	Icon        string  `json:"icon,omitempty"`
	Quantity    int     `json:"quantity"`
	ItemPrice   float64 `json:"itemPrice"`
}

type orderResponse struct {
	OrderID     string              `json:"orderId"`
	Items       []orderItemResponse `json:"items"`
	TotalAmount float64             `json:"totalAmount"`
	PaymentType string              `json:"paymentType"`
	Location    string              `json:"location"`
	Status      string              `json:"status"`
	PlacedAt    string              `json:"placedAt"`
}

func (h *OrderHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req submitOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_body", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	method, ok := domain.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_argument", "unknown payment method", http.StatusBadRequest))
		return
	}

	result, err := h.orders.Submit(r.Context(), services.SubmitOrderCommand{
		UserID:           identity.UID,
		PaymentMethod:    method,
		DeliveryLocation: req.DeliveryLocation,
		OrderID:          req.OrderID,
		PaymentResponse:  req.PaymentResponse,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	if !result.Notified {
		// The order persisted but the caller has gone; nothing useful can be
		// written to this connection.
		return
	}

	status := http.StatusCreated
	if req.OrderID != "" {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, submitOrderResponse{
		OrderID: result.OrderID,
		Status:  string(result.Status),
		Total:   domain.RupeesFromPaise(result.Total),
	})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orders := h.orders.ListOrders(r.Context(), identity.UID)
	payload := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, toOrderResponse(order))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": payload})
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, orderItemResponse{
			MainService: line.Key.Category,
			SubService:  line.Key.SubCategory,
			ItemType:    line.Key.ItemLabel,
			Icon:        line.IconRef,
			Quantity:    line.Quantity,
			ItemPrice:   domain.RupeesFromPaise(line.UnitPrice),
		})
	}
	return orderResponse{
		OrderID:     order.ID,
		Items:       items,
		TotalAmount: domain.RupeesFromPaise(order.TotalAmount),
		PaymentType: string(order.PaymentMethod),
		Location:    order.DeliveryLocation,
		Status:      string(order.Status),
		PlacedAt:    order.PlacedAt.UTC().Format(time.RFC3339),
	}
}
