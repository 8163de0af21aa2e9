package repository

import (
	"context"
	"testing"
	"time"

	"keebstore/internal/database"
	"keebstore/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the application schema
// and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool
	pool, err := database.NewPoolFromURL(ctx, connStr, zerolog.Nop())
	require.NoError(t, err)

	// Create schema
	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	// Cleanup function
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedCategory inserts a category and returns its ID.
func seedCategory(t *testing.T, pool *pgxpool.Pool, name, slug string) int64 {
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id`, name, slug,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// seedProduct inserts a product and returns its ID.
func seedProduct(t *testing.T, pool *pgxpool.Pool, categoryID int64, name, slug, price string, stock int) int64 {
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO products (category_id, name, slug, price, image, description, in_stock, stock_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, categoryID, name, slug, decimal.RequireFromString(price), "https://img/"+slug, name+" description",
		stock > 0, stock,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// catalog is a small fixture covering every attribute variant.
type catalog struct {
	kitID, switchID, keycapID, accessoryID, deskmatID int64
}

func seedCatalog(t *testing.T, pool *pgxpool.Pool) catalog {
	ctx := context.Background()

	kits := seedCategory(t, pool, "Keyboard Kits", model.CategoryKeyboardKits)
	switches := seedCategory(t, pool, "Switches", model.CategorySwitches)
	keycaps := seedCategory(t, pool, "Keycaps", model.CategoryKeycaps)
	accessories := seedCategory(t, pool, "Accessories", model.CategoryAccessories)
	merch := seedCategory(t, pool, "Merch", "merch")

	c := catalog{
		kitID:       seedProduct(t, pool, kits, "GMMK Pro", "gmmk-pro", "1850000", 10),
		switchID:    seedProduct(t, pool, switches, "Gateron Yellow (70pcs)", "gateron-yellow-70pcs", "120000", 100),
		keycapID:    seedProduct(t, pool, keycaps, "GMK White on Black", "gmk-white-on-black", "1850000", 0),
		accessoryID: seedProduct(t, pool, accessories, "Krytox 205g0 (5ml)", "krytox-205g0-5ml", "180000", 60),
		deskmatID:   seedProduct(t, pool, merch, "Desk Mat", "desk-mat", "99999.99", 5),
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO keyboard_kits (product_id, size, case_material, mount_type, pcb_type, has_rotary_encoder, layout)
		VALUES ($1, '75%', 'Aluminum', 'Gasket Mount', 'Hot-swap', TRUE, 'ANSI')
	`, c.kitID)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO switches (product_id, switch_type, actuation_force, travel_distance, quantity_per_pack, is_factory_lubed, housing_material, stem_material)
		VALUES ($1, 'Linear', '50g', '4mm', 70, FALSE, 'Nylon', 'POM')
	`, c.switchID)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO keycaps (product_id, profile, material, printing_method, key_count, color_scheme)
		VALUES ($1, 'Cherry', 'ABS', 'Double-shot', 139, 'White on Black')
	`, c.keycapID)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO accessories (product_id, accessory_type, quantity, size_compatibility, variant)
		VALUES ($1, 'Lube', '5ml', 'Universal', NULL)
	`, c.accessoryID)
	require.NoError(t, err)

	return c
}
