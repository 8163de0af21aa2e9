package repository

import (
	"context"
	"time"

	"keebstore/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for catalogue data access operations.
type ProductRepository interface {
	// GetAll retrieves products matching the filter, with their category and attributes.
	GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// Count returns the number of products matching the filter, ignoring limit and offset.
	Count(ctx context.Context, filter model.ProductFilter) (int, error)

	// GetBySlug retrieves a single product by slug. Returns nil if it does not exist.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// GetWithDetails retrieves a single product by ID. Returns nil if it does not exist.
	GetWithDetails(ctx context.Context, id int64) (*model.Product, error)

	// LockWithDetails loads and row-locks the given products within the transaction,
	// in ascending ID order. Missing IDs are absent from the result.
	LockWithDetails(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]*model.Product, error)

	// DecrementStock removes qty units if at least qty are available.
	// It reports false, without changing anything, when stock is insufficient
	// or the product does not exist.
	DecrementStock(ctx context.Context, tx pgx.Tx, id int64, qty int) (bool, error)

	// IncrementStock returns qty units to stock. It reports false when the
	// product no longer exists.
	IncrementStock(ctx context.Context, tx pgx.Tx, id int64, qty int) (bool, error)

	// ListCategories retrieves every category with its product count.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// FilterOptions lists the distinct attribute values present in a category,
	// or in the whole catalogue when categorySlug is empty.
	FilterOptions(ctx context.Context, categorySlug string) (*model.FilterOptions, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order with its items. Returns nil if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByNumber retrieves an order with its items by order number.
	// Returns nil if it does not exist.
	GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error)

	// LockByID loads and row-locks an order with its items within the transaction.
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// LockByNumber loads and row-locks an order with its items within the transaction.
	LockByNumber(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Order, error)

	// Update persists the lifecycle columns of an order within the transaction.
	Update(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// List retrieves one page of orders, newest first, with items, and the
	// total number of matching orders.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)
}

// SequenceRepository hands out per-day order number sequence values.
type SequenceRepository interface {
	// Next atomically increments and returns the counter for day within the transaction.
	Next(ctx context.Context, tx pgx.Tx, day time.Time) (int, error)
}
