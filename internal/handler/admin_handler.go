package handler

import (
	"net/http"

	"keebstore/internal/model"
	"keebstore/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AdminHandler handles back-office order management.
type AdminHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(service service.OrderService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.With().Str("handler", "admin").Logger(),
	}
}

// List handles GET /api/admin/orders.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	verr := &model.ValidationError{}
	q := r.URL.Query()
	filter := model.OrderFilter{
		Status:        model.OrderStatus(q.Get("status")),
		PaymentStatus: model.PaymentStatus(q.Get("payment_status")),
		Search:        q.Get("search"),
		Page:          queryInt(r, "page", verr),
		PerPage:       queryInt(r, "per_page", verr),
	}
	if len(verr.Fields) > 0 {
		writeError(w, r, verr, h.logger)
		return
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, "Orders retrieved successfully", page)
}

// UpdateStatus handles PUT /api/admin/orders/{id}/status.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req model.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, "Order status updated successfully", order)
}

// UpdatePaymentStatus handles PUT /api/admin/orders/{id}/payment-status.
func (h *AdminHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req model.UpdatePaymentStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.UpdatePaymentStatus(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, "Payment status updated successfully", order)
}

// orderID parses the {id} path segment. A malformed id cannot name an
// existing order, so it is reported as not found.
func (h *AdminHandler) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, model.ErrOrderNotFound, h.logger)
		return uuid.Nil, false
	}
	return id, true
}
