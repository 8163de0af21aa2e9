package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"keebstore/internal/database"
	"keebstore/internal/handler"
	"keebstore/internal/ordernum"
	"keebstore/internal/pricing"
	"keebstore/internal/promo"
	"keebstore/internal/repository"
	"keebstore/internal/router"
	"keebstore/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application
// schema applied.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := database.NewPoolFromURL(ctx, connStr, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedCatalogue loads the sample catalogue.
func SeedCatalogue(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if err := database.Seed(context.Background(), pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to seed catalogue: %v", err)
	}
}

// CleanupDB removes every row while keeping the schema.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"order_items", "orders", "order_number_sequences",
		"keyboard_kits", "switches", "keycaps", "accessories",
		"products", "categories",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// ProductID looks up a seeded product by slug.
func ProductID(t *testing.T, pool *pgxpool.Pool, slug string) int64 {
	t.Helper()

	var id int64
	if err := pool.QueryRow(context.Background(), `SELECT id FROM products WHERE slug = $1`, slug).Scan(&id); err != nil {
		t.Fatalf("failed to find product %s: %v", slug, err)
	}
	return id
}

// StockOf returns the current stock of a product.
func StockOf(t *testing.T, pool *pgxpool.Pool, id int64) int {
	t.Helper()

	var stock int
	if err := pool.QueryRow(context.Background(), `SELECT stock_quantity FROM products WHERE id = $1`, id).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock of %d: %v", id, err)
	}
	return stock
}

// promoDiscount is the flat discount applied by the test server.
var promoDiscount = decimal.NewFromInt(50000)

// setupTestServer wires the full stack against testDB with the sample promo
// lists loaded from a temporary directory.
func setupTestServer(t *testing.T, testDB *TestDB, strict bool) http.Handler {
	t.Helper()

	logger := zerolog.Nop()
	ctx := context.Background()

	files, err := promo.WriteSamples(t.TempDir())
	if err != nil {
		t.Fatalf("failed to write promo samples: %v", err)
	}
	rules := promo.DefaultRules()
	rules.Files = files
	promos, err := promo.NewValidator(ctx, rules, promo.NewFileLoader(logger), logger)
	if err != nil {
		t.Fatalf("failed to load promo codes: %v", err)
	}
	t.Cleanup(func() {
		promos.Close()
	})

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	numbers := ordernum.NewGenerator(repository.NewSequenceRepository(logger), time.UTC, logger)

	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, numbers, promos, service.OrderOptions{
		Pricing:           pricing.DefaultPolicy(),
		PromoDiscount:     promoDiscount,
		StrictTransitions: strict,
	}, logger)

	return router.New(router.Handlers{
		Product: handler.NewProductHandler(productService, logger),
		Order:   handler.NewOrderHandler(orderService, logger),
		Admin:   handler.NewAdminHandler(orderService, logger),
		Health:  handler.NewHealthHandler(testDB.Pool, logger),
	}, logger)
}
