package service

import (
	"context"

	"keebstore/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductService defines catalogue read operations.
type ProductService interface {
	// List retrieves one page of products, optionally narrowed by category
	// slug, availability, attribute values, price range and a search term.
	List(ctx context.Context, query model.ProductQuery) (*model.ProductPage, error)

	// GetBySlug retrieves a single product with its attribute set.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// Categories retrieves every category with its product count.
	Categories(ctx context.Context) ([]model.Category, error)

	// FilterOptions lists the attribute values present in a category.
	FilterOptions(ctx context.Context, category string) (*model.FilterOptions, error)
}

// OrderService defines operations for order placement and fulfilment.
type OrderService interface {
	// PlaceOrder validates the request, reserves stock and persists the order
	// with its items in a single transaction.
	PlaceOrder(ctx context.Context, req *model.PlaceOrderRequest) (*model.Order, error)

	// GetByNumber retrieves an order with its items.
	GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error)

	// List retrieves one page of orders, newest first.
	List(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error)

	// UpdateStatus moves an order through fulfilment.
	UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Order, error)

	// Cancel cancels an order on the customer's behalf and restores its stock.
	Cancel(ctx context.Context, orderNumber string) (*model.Order, error)

	// UpdatePaymentStatus records a payment outcome.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, req *model.UpdatePaymentStatusRequest) (*model.Order, error)
}

// NumberGenerator hands out order numbers within the placing transaction.
type NumberGenerator interface {
	Generate(ctx context.Context, tx pgx.Tx) (string, error)
}
