package repository

import (
	"context"
	"fmt"
	"strings"

	"keebstore/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `
	id, order_number, customer_name, customer_email, customer_phone,
	shipping_address, city, province, postal_code,
	subtotal, shipping_cost, tax, discount, total,
	payment_method, payment_status, status,
	promo_code, payment_proof, paid_at,
	shipping_courier, tracking_number, shipped_at, delivered_at,
	customer_notes, admin_notes, created_at, updated_at
`

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.OrderNumber, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.ShippingAddress, order.City, order.Province, order.PostalCode,
		order.Subtotal, order.ShippingCost, order.Tax, order.Discount, order.Total,
		order.PaymentMethod, order.PaymentStatus, order.Status,
		order.PromoCode, order.PaymentProof, order.PaidAt,
		order.ShippingCourier, order.TrackingNumber, order.ShippedAt, order.DeliveredAt,
		order.CustomerNotes, order.AdminNotes, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (
			id, order_id, product_id, product_name, product_slug, product_image,
			product_description, price, quantity, subtotal, product_details, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		var details any
		if len(item.ProductDetails) > 0 {
			details = string(item.ProductDetails)
		}
		batch.Queue(query,
			item.ID, item.OrderID, item.ProductID, item.ProductName, item.ProductSlug, item.ProductImage,
			item.ProductDescription, item.Price, item.Quantity, item.Subtotal, details, item.CreatedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Int64("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.fetchOne(ctx, r.pool, "id = $1", "", "order_id", id.String(), id)
}

// GetByNumber retrieves an order by its order number along with its items.
func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	return r.fetchOne(ctx, r.pool, "order_number = $1", "", "order_number", orderNumber, orderNumber)
}

// LockByID loads an order and holds its row lock until tx ends.
func (r *orderRepository) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return r.fetchOne(ctx, tx, "id = $1", " FOR UPDATE", "order_id", id.String(), id)
}

// LockByNumber loads an order and holds its row lock until tx ends.
func (r *orderRepository) LockByNumber(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Order, error) {
	return r.fetchOne(ctx, tx, "order_number = $1", " FOR UPDATE", "order_number", orderNumber, orderNumber)
}

// Update persists the mutable lifecycle columns of an order.
func (r *orderRepository) Update(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders
		SET status = $2,
			payment_status = $3,
			payment_proof = $4,
			paid_at = $5,
			shipping_courier = $6,
			tracking_number = $7,
			shipped_at = $8,
			delivered_at = $9,
			admin_notes = $10,
			updated_at = $11
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		order.ID, order.Status, order.PaymentStatus, order.PaymentProof, order.PaidAt,
		order.ShippingCourier, order.TrackingNumber, order.ShippedAt, order.DeliveredAt,
		order.AdminNotes, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// List retrieves one page of orders matching the filter, newest first.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	where, args := orderWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	if total == 0 {
		return []model.Order{}, 0, nil
	}

	args = append(args, filter.PerPage, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM orders%s
		ORDER BY created_at DESC, order_number DESC
		LIMIT $%d OFFSET $%d`, orderColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("page", filter.Page).
			Int("per_page", filter.PerPage).
			Msg("failed to query orders")
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	ids := make([]uuid.UUID, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	items, err := r.loadItems(ctx, r.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Items = itemsOrEmpty(items[orders[i].ID])
	}

	return orders, total, nil
}

// fetchOne loads a single order matching cond and its items. logKey and
// logValue identify the order in log entries.
func (r *orderRepository) fetchOne(ctx context.Context, q querier, cond, suffix, logKey, logValue string, arg any) (*model.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE " + cond + suffix

	order, err := scanOrder(q.QueryRow(ctx, query, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str(logKey, logValue).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str(logKey, logValue).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.loadItems(ctx, q, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = itemsOrEmpty(items[order.ID])

	return order, nil
}

// loadItems retrieves the items of every given order, grouped by order ID.
func (r *orderRepository) loadItems(ctx context.Context, q querier, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	grouped := make(map[uuid.UUID][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return grouped, nil
	}

	query := `
		SELECT id, order_id, product_id, product_name, product_slug, product_image,
			product_description, price, quantity, subtotal, product_details, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at, product_id, id
	`

	rows, err := q.Query(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int("order_count", len(orderIDs)).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item    model.OrderItem
			details []byte
		)
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.ProductSlug,
			&item.ProductImage, &item.ProductDescription, &item.Price, &item.Quantity,
			&item.Subtotal, &details, &item.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.ProductDetails = details
		grouped[item.OrderID] = append(grouped[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return grouped, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingAddress, &o.City, &o.Province, &o.PostalCode,
		&o.Subtotal, &o.ShippingCost, &o.Tax, &o.Discount, &o.Total,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status,
		&o.PromoCode, &o.PaymentProof, &o.PaidAt,
		&o.ShippingCourier, &o.TrackingNumber, &o.ShippedAt, &o.DeliveredAt,
		&o.CustomerNotes, &o.AdminNotes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func orderWhere(filter model.OrderFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		conds = append(conds, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(order_number ILIKE $%d OR customer_name ILIKE $%d OR customer_email ILIKE $%d)", n, n, n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func itemsOrEmpty(items []model.OrderItem) []model.OrderItem {
	if items == nil {
		return []model.OrderItem{}
	}
	return items
}
