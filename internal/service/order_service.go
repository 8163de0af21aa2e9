package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"keebstore/internal/model"
	"keebstore/internal/pricing"
	"keebstore/internal/promo"
	"keebstore/internal/repository"
	"keebstore/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Listing defaults.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// OrderOptions holds the configurable behaviour of the order service.
type OrderOptions struct {
	Pricing           pricing.Policy
	PromoDiscount     decimal.Decimal
	StrictTransitions bool

	// Now overrides the clock used for timestamps.
	Now func() time.Time
}

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	numbers     NumberGenerator
	promos      promo.Validator
	validator   *validation.Validator
	opts        OrderOptions
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	numbers NumberGenerator,
	promos promo.Validator,
	opts OrderOptions,
	logger zerolog.Logger,
) OrderService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if promos == nil {
		promos = promo.Disabled()
	}
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		numbers:     numbers,
		promos:      promos,
		validator:   validation.New(),
		opts:        opts,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// line is the requested quantity of one product, summed over request items.
type line struct {
	productID int64
	quantity  int
}

// PlaceOrder validates the request, reserves stock and persists the order
// with its items. Nothing is persisted unless every step succeeds.
func (s *orderService) PlaceOrder(ctx context.Context, req *model.PlaceOrderRequest) (_ *model.Order, err error) {
	if req == nil {
		return nil, model.NewValidationError("items", "is required")
	}
	if err := s.validator.Struct(req); err != nil {
		s.logger.Debug().Err(err).Msg("order request rejected")
		return nil, err
	}

	promoCode := normalisePromoCode(req.PromoCode)
	if promoCode != nil {
		if err := s.promos.Validate(ctx, *promoCode); err != nil {
			s.logger.Warn().Err(err).Str("promo_code", *promoCode).Msg("invalid promo code")
			return nil, err
		}
	}

	lines, err := aggregate(req.Items)
	if err != nil {
		s.logger.Debug().Err(err).Msg("order quantities rejected")
		return nil, err
	}
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.productID
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	products, err := s.productRepo.LockWithDetails(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	for _, l := range lines {
		p, ok := products[l.productID]
		if !ok {
			s.logger.Warn().Int64("product_id", l.productID).Msg("ordered product not found")
			return nil, model.NewProductNotFoundError(l.productID)
		}
		if p.StockQuantity < l.quantity {
			s.logger.Warn().
				Int64("product_id", p.ID).
				Int("requested", l.quantity).
				Int("available", p.StockQuantity).
				Msg("insufficient stock")
			return nil, model.NewInsufficientStockError(p.ID, p.Name, l.quantity, p.StockQuantity)
		}
	}

	now := s.opts.Now().UTC()
	orderID := uuid.New()

	items := make([]model.OrderItem, len(req.Items))
	priced := make([]pricing.LineItem, len(req.Items))
	for i, ri := range req.Items {
		p := products[ri.ProductID]

		snapshot, err := model.DetailsSnapshot(p)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot product %d: %w", p.ID, err)
		}

		priced[i] = pricing.LineItem{UnitPrice: p.Price, Quantity: ri.Quantity}
		items[i] = model.OrderItem{
			ID:                 uuid.New(),
			OrderID:            orderID,
			ProductID:          p.ID,
			ProductName:        p.Name,
			ProductSlug:        p.Slug,
			ProductImage:       p.Image,
			ProductDescription: nonEmpty(p.Description),
			Price:              p.Price,
			Quantity:           ri.Quantity,
			Subtotal:           priced[i].Subtotal(),
			ProductDetails:     snapshot,
			CreatedAt:          now,
		}
	}

	totals := pricing.Compute(priced, s.opts.Pricing)
	if promoCode != nil {
		totals = totals.WithDiscount(s.opts.PromoDiscount)
	}

	number, err := s.numbers.Generate(ctx, tx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate order number")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	order := &model.Order{
		ID:              orderID,
		OrderNumber:     number,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		City:            strings.TrimSpace(req.City),
		Province:        strings.TrimSpace(req.Province),
		PostalCode:      strings.TrimSpace(req.PostalCode),
		Subtotal:        totals.Subtotal,
		ShippingCost:    totals.ShippingCost,
		Tax:             totals.Tax,
		Discount:        totals.Discount,
		Total:           totals.Total,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   model.PaymentStatusPending,
		Status:          model.OrderStatusPending,
		PromoCode:       promoCode,
		CustomerNotes:   req.CustomerNotes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	for _, l := range lines {
		ok, err := s.productRepo.DecrementStock(ctx, tx, l.productID, l.quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to place order: %w", err)
		}
		if !ok {
			p := products[l.productID]
			s.logger.Warn().Int64("product_id", p.ID).Msg("stock changed during placement")
			return nil, model.NewInsufficientStockError(p.ID, p.Name, l.quantity, p.StockQuantity)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_number", number).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	order.Items = items

	s.logger.Info().
		Str("order_number", order.OrderNumber).
		Int("item_count", len(items)).
		Str("total", order.Total.StringFixed(2)).
		Msg("order placed")

	return order, nil
}

// GetByNumber retrieves an order with its items.
func (s *orderService) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	order, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		s.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// List retrieves one page of orders. Page defaults to 1 and per_page to
// DefaultPerPage.
func (s *orderService) List(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = DefaultPerPage
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return model.NewOrderPage(orders, filter.Page, filter.PerPage, total), nil
}

// aggregate sums quantities per product, keeping first-seen order. A product
// whose combined quantity passes model.MaxLineQuantity is rejected.
func aggregate(items []model.OrderItemRequest) ([]line, error) {
	index := make(map[int64]int, len(items))
	var lines []line
	for n, it := range items {
		if it.Quantity < 1 || it.Quantity > model.MaxLineQuantity {
			return nil, model.NewValidationError(fmt.Sprintf("items.%d.quantity", n),
				fmt.Sprintf("must be between 1 and %d", model.MaxLineQuantity))
		}
		if i, ok := index[it.ProductID]; ok {
			if it.Quantity > model.MaxLineQuantity-lines[i].quantity {
				return nil, model.NewValidationError(fmt.Sprintf("items.%d.quantity", n),
					fmt.Sprintf("total for product %d must not exceed %d", it.ProductID, model.MaxLineQuantity))
			}
			lines[i].quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(lines)
		lines = append(lines, line{productID: it.ProductID, quantity: it.Quantity})
	}
	return lines, nil
}

// normalisePromoCode trims the code; blank codes count as absent.
func normalisePromoCode(code *string) *string {
	if code == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*code)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
