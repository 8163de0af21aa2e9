package service

import (
	"context"
	"fmt"
	"strings"

	"keebstore/internal/model"
	"keebstore/internal/repository"
	"keebstore/internal/validation"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	validator   *validation.Validator
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		validator:   validation.New(),
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves one page of products, ordered by name unless the query
// asks for another sort.
func (s *productService) List(ctx context.Context, query model.ProductQuery) (*model.ProductPage, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}
	if err := checkPriceRange(query.MinPrice, query.MaxPrice); err != nil {
		return nil, err
	}

	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 {
		query.PerPage = DefaultPerPage
	}

	filter := model.ProductFilter{
		CategorySlug:  strings.TrimSpace(query.Category),
		InStockOnly:   query.InStock,
		Size:          strings.TrimSpace(query.Size),
		SwitchType:    strings.TrimSpace(query.SwitchType),
		Profile:       strings.TrimSpace(query.Profile),
		Material:      strings.TrimSpace(query.Material),
		AccessoryType: strings.TrimSpace(query.AccessoryType),
		MinPrice:      query.MinPrice,
		MaxPrice:      query.MaxPrice,
		Search:        strings.TrimSpace(query.Search),
		SortBy:        query.SortBy,
		SortDesc:      query.SortOrder == "desc",
	}

	total, err := s.productRepo.Count(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	var products []model.Product
	if total > 0 {
		filter.Limit = query.PerPage
		filter.Offset = (query.Page - 1) * query.PerPage

		products, err = s.productRepo.GetAll(ctx, filter)
		if err != nil {
			s.logger.Error().Err(err).
				Int("page", query.Page).
				Int("per_page", query.PerPage).
				Msg("failed to list products")
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("total", total).
		Msg("retrieved products")

	return model.NewProductPage(products, query.Page, query.PerPage, total), nil
}

// GetBySlug retrieves a single product by slug.
func (s *productService) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	if slug == "" {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("slug", slug).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Categories retrieves every category with its product count.
func (s *productService) Categories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.productRepo.ListCategories(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// FilterOptions lists the attribute values available for filtering a
// category, or the whole catalogue when category is blank.
func (s *productService) FilterOptions(ctx context.Context, category string) (*model.FilterOptions, error) {
	category = strings.TrimSpace(category)
	if len(category) > 100 {
		return nil, model.NewValidationError("category", "must not exceed 100 characters")
	}

	opts, err := s.productRepo.FilterOptions(ctx, category)
	if err != nil {
		s.logger.Error().Err(err).Str("category", category).Msg("failed to load filter options")
		return nil, fmt.Errorf("failed to load filter options: %w", err)
	}
	return opts, nil
}

func checkPriceRange(minPrice, maxPrice *decimal.Decimal) error {
	verr := &model.ValidationError{}
	if minPrice != nil && minPrice.IsNegative() {
		verr.Add("min_price", "must be at least 0")
	}
	if maxPrice != nil && maxPrice.IsNegative() {
		verr.Add("max_price", "must be at least 0")
	}
	if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(*maxPrice) {
		verr.Add("max_price", "must not be less than min_price")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
