package router

import (
	"net/http"

	"keebstore/internal/handler"
	"keebstore/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	Admin   *handler.AdminHandler
	Health  *handler.HealthHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health.Check)

	// Catalogue
	mux.HandleFunc("GET /api/products", h.Product.List)
	mux.HandleFunc("GET /api/products/{slug}", h.Product.Get)
	mux.HandleFunc("GET /api/categories", h.Product.Categories)
	mux.HandleFunc("GET /api/filter-options", h.Product.FilterOptions)

	// Orders
	mux.HandleFunc("POST /api/orders", h.Order.Place)
	mux.HandleFunc("GET /api/orders/{orderNumber}", h.Order.Get)
	mux.HandleFunc("POST /api/orders/{orderNumber}/cancel", h.Order.Cancel)

	// Back office
	mux.HandleFunc("GET /api/admin/orders", h.Admin.List)
	mux.HandleFunc("PUT /api/admin/orders/{id}/status", h.Admin.UpdateStatus)
	mux.HandleFunc("PUT /api/admin/orders/{id}/payment-status", h.Admin.UpdatePaymentStatus)

	// Apply middleware in order: Recovery -> Logging -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
