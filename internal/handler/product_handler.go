package handler

import (
	"net/http"
	"strings"

	"keebstore/internal/model"
	"keebstore/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles catalogue requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	verr := &model.ValidationError{}
	inStock := queryBool(r, "in_stock", verr)
	inStockOnly := queryBool(r, "in_stock_only", verr)
	query := model.ProductQuery{
		Category:      q.Get("category"),
		InStock:       inStock || inStockOnly,
		Size:          q.Get("size"),
		SwitchType:    q.Get("switch_type"),
		Profile:       q.Get("profile"),
		Material:      q.Get("material"),
		AccessoryType: q.Get("accessory_type"),
		MinPrice:      queryDecimal(r, "min_price", verr),
		MaxPrice:      queryDecimal(r, "max_price", verr, "Infinity"),
		Search:        q.Get("search"),
		SortBy:        q.Get("sort_by"),
		SortOrder:     strings.ToLower(q.Get("sort_order")),
		Page:          queryInt(r, "page", verr),
		PerPage:       queryInt(r, "per_page", verr),
	}
	if len(verr.Fields) > 0 {
		writeError(w, r, verr, h.logger)
		return
	}

	page, err := h.service.List(r.Context(), query)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, "Products retrieved successfully", page)
}

// Get handles GET /api/products/{slug}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, "Product retrieved successfully", product)
}

// Categories handles GET /api/categories.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, "Categories retrieved successfully", categories)
}

// FilterOptions handles GET /api/filter-options.
func (h *ProductHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.FilterOptions(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, "Filter options retrieved successfully", opts)
}
