package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// CatalogSchemaSQL creates the category, product and per-category attribute tables.
const CatalogSchemaSQL = `
CREATE TABLE IF NOT EXISTS categories (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    slug VARCHAR(255) NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS products (
    id BIGSERIAL PRIMARY KEY,
    category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    name VARCHAR(255) NOT NULL,
    slug VARCHAR(255) NOT NULL UNIQUE,
    price NUMERIC(15,2) NOT NULL CHECK (price >= 0),
    image TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    in_stock BOOLEAN NOT NULL DEFAULT TRUE,
    stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_in_stock ON products(in_stock);

CREATE TABLE IF NOT EXISTS keyboard_kits (
    id BIGSERIAL PRIMARY KEY,
    product_id BIGINT NOT NULL UNIQUE REFERENCES products(id) ON DELETE CASCADE,
    size VARCHAR(20) NOT NULL CHECK (size IN ('60%', '65%', '75%', 'TKL', 'Full Size', '40%', 'Alice')),
    case_material VARCHAR(255),
    mount_type VARCHAR(255),
    pcb_type VARCHAR(20) NOT NULL DEFAULT 'Hot-swap' CHECK (pcb_type IN ('Hot-swap', 'Solder', 'Both')),
    has_rotary_encoder BOOLEAN NOT NULL DEFAULT FALSE,
    layout VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS switches (
    id BIGSERIAL PRIMARY KEY,
    product_id BIGINT NOT NULL UNIQUE REFERENCES products(id) ON DELETE CASCADE,
    switch_type VARCHAR(20) NOT NULL CHECK (switch_type IN ('Linear', 'Tactile', 'Clicky')),
    actuation_force VARCHAR(255),
    travel_distance VARCHAR(255),
    quantity_per_pack INTEGER NOT NULL DEFAULT 70,
    is_factory_lubed BOOLEAN NOT NULL DEFAULT FALSE,
    housing_material VARCHAR(255),
    stem_material VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS keycaps (
    id BIGSERIAL PRIMARY KEY,
    product_id BIGINT NOT NULL UNIQUE REFERENCES products(id) ON DELETE CASCADE,
    profile VARCHAR(20) NOT NULL CHECK (profile IN ('Cherry', 'OEM', 'SA', 'XDA', 'ASA', 'MT3', 'DSA', 'KAT')),
    material VARCHAR(20) NOT NULL CHECK (material IN ('ABS', 'PBT', 'POM')),
    printing_method VARCHAR(20) NOT NULL CHECK (printing_method IN ('Double-shot', 'Dye-sub', 'Laser', 'Pad Print')),
    key_count INTEGER NOT NULL DEFAULT 104,
    color_scheme VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS accessories (
    id BIGSERIAL PRIMARY KEY,
    product_id BIGINT NOT NULL UNIQUE REFERENCES products(id) ON DELETE CASCADE,
    accessory_type VARCHAR(20) NOT NULL CHECK (accessory_type IN ('Lube', 'Stabilizer', 'Film', 'Tool', 'Cable', 'Foam', 'Other')),
    quantity VARCHAR(255),
    size_compatibility VARCHAR(255),
    variant VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// OrderSchemaSQL creates the order tables. order_items.product_id has no
// foreign key; items outlive their product.
const OrderSchemaSQL = `
CREATE TABLE IF NOT EXISTS orders (
    id UUID PRIMARY KEY,
    order_number VARCHAR(32) NOT NULL UNIQUE,
    customer_name VARCHAR(255) NOT NULL,
    customer_email VARCHAR(255) NOT NULL,
    customer_phone VARCHAR(20) NOT NULL,
    shipping_address TEXT NOT NULL,
    city VARCHAR(100) NOT NULL,
    province VARCHAR(100) NOT NULL,
    postal_code VARCHAR(10) NOT NULL,
    subtotal NUMERIC(15,2) NOT NULL CHECK (subtotal >= 0),
    shipping_cost NUMERIC(15,2) NOT NULL DEFAULT 0 CHECK (shipping_cost >= 0),
    tax NUMERIC(15,2) NOT NULL DEFAULT 0 CHECK (tax >= 0),
    discount NUMERIC(15,2) NOT NULL DEFAULT 0 CHECK (discount >= 0),
    total NUMERIC(15,2) NOT NULL CHECK (total >= 0),
    payment_method VARCHAR(20) NOT NULL DEFAULT 'bank_transfer'
        CHECK (payment_method IN ('bank_transfer', 'e_wallet', 'credit_card', 'cod')),
    payment_status VARCHAR(20) NOT NULL DEFAULT 'pending'
        CHECK (payment_status IN ('pending', 'paid', 'failed', 'expired')),
    status VARCHAR(20) NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'processing', 'shipped', 'delivered', 'cancelled', 'refunded')),
    promo_code VARCHAR(64),
    payment_proof VARCHAR(255),
    paid_at TIMESTAMPTZ,
    shipping_courier VARCHAR(100),
    tracking_number VARCHAR(100),
    shipped_at TIMESTAMPTZ,
    delivered_at TIMESTAMPTZ,
    customer_notes TEXT,
    admin_notes TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_orders_customer_email ON orders(customer_email);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC);

CREATE TABLE IF NOT EXISTS order_items (
    id UUID PRIMARY KEY,
    order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id BIGINT NOT NULL,
    product_name VARCHAR(255) NOT NULL,
    product_slug VARCHAR(255) NOT NULL,
    product_image TEXT NOT NULL DEFAULT '',
    product_description TEXT,
    price NUMERIC(15,2) NOT NULL CHECK (price >= 0),
    quantity INTEGER NOT NULL CHECK (quantity > 0),
    subtotal NUMERIC(15,2) NOT NULL CHECK (subtotal >= 0),
    product_details JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_product_id ON order_items(product_id);

CREATE TABLE IF NOT EXISTS order_number_sequences (
    day DATE PRIMARY KEY,
    last_value INTEGER NOT NULL
);
`

// DropSchemaSQL removes every table, dependents first.
const DropSchemaSQL = `
DROP TABLE IF EXISTS order_number_sequences;
DROP TABLE IF EXISTS order_items;
DROP TABLE IF EXISTS orders;
DROP TABLE IF EXISTS accessories;
DROP TABLE IF EXISTS keycaps;
DROP TABLE IF EXISTS switches;
DROP TABLE IF EXISTS keyboard_kits;
DROP TABLE IF EXISTS products;
DROP TABLE IF EXISTS categories;
`

// Migrate creates every table and index. It is idempotent.
func Migrate(ctx context.Context, db Execer, logger zerolog.Logger) error {
	steps := []struct {
		name string
		sql  string
	}{
		{"catalog", CatalogSchemaSQL},
		{"orders", OrderSchemaSQL},
	}

	for _, step := range steps {
		if _, err := db.Exec(ctx, step.sql); err != nil {
			return fmt.Errorf("failed to apply %s schema: %w", step.name, err)
		}
		logger.Info().Str("schema", step.name).Msg("schema applied")
	}

	return nil
}

// Drop removes every table created by Migrate.
func Drop(ctx context.Context, db Execer, logger zerolog.Logger) error {
	if _, err := db.Exec(ctx, DropSchemaSQL); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	logger.Warn().Msg("schema dropped")
	return nil
}
