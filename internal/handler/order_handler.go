package handler

import (
	"net/http"

	"keebstore/internal/model"
	"keebstore/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles customer-facing order requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Place handles POST /api/orders.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req model.PlaceOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusCreated, "Order placed successfully", order)
}

// Get handles GET /api/orders/{orderNumber}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetByNumber(r.Context(), r.PathValue("orderNumber"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, "Order retrieved successfully", order)
}

// Cancel handles POST /api/orders/{orderNumber}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Cancel(r.Context(), r.PathValue("orderNumber"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, "Order cancelled successfully", order)
}
