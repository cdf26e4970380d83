package test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type PostgresSetup struct {
	ConnStr string
	cleanup func()
}

func (p *PostgresSetup) Cleanup() {
	p.cleanup()
}

func SetupPostgres(ctx context.Context, t *testing.T) *PostgresSetup {
	t.Helper()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := runMigrations(connStr); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	}

	return &PostgresSetup{ConnStr: connStr, cleanup: cleanup}
}

func runMigrations(connStr string) error {
	migrationsPath := getMigrationsPath()

	m, err := migrate.New(migrationsPath, connStr)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func getMigrationsPath() string {
	_, filename, _, _ := runtime.Caller(0)
	testDir := filepath.Dir(filename)
	projectRoot := filepath.Dir(testDir)
	migrationsDir := filepath.Join(projectRoot, "migrations")
	return "file://" + migrationsDir
}

func SetupKafka(ctx context.Context, t *testing.T) ([]string, func()) {
	t.Helper()

	container, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.8.0",
		kafka.WithClusterID("test-cluster"),
	)
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}

	brokers, err := container.Brokers(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get kafka brokers: %v", err)
	}

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers, cleanup
}

// OpenDB connects to the migrated test database.
func OpenDB(t *testing.T, connStr string) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// SeedAccount inserts an account with the given phone number.
func SeedAccount(ctx context.Context, t *testing.T, db *sql.DB, email, phone string) {
	t.Helper()

	if _, err := db.ExecContext(ctx, `
		INSERT INTO accounts (email, first_name, last_name, phone_num)
		VALUES ($1, 'Test', 'Shopper', $2)
	`, email, phone); err != nil {
		t.Fatalf("failed to seed account %s: %v", email, err)
	}
}

// SeedVariant inserts a product with a single active variant and returns the
// variant id.
func SeedVariant(ctx context.Context, t *testing.T, db *sql.DB, name string, stock int, price string) int64 {
	t.Helper()

	var productID, variantID int64
	if err := db.QueryRowContext(ctx, `
		INSERT INTO products (product_name) VALUES ($1) RETURNING id
	`, name).Scan(&productID); err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}

	if err := db.QueryRowContext(ctx, `
		INSERT INTO product_variants (product_id, color, size, stock_quantity, price, sku)
		VALUES ($1, 'black', 'M', $2, $3, $4)
		RETURNING id
	`, productID, stock, price, fmt.Sprintf("SKU-%d", productID)).Scan(&variantID); err != nil {
		t.Fatalf("failed to seed variant for %s: %v", name, err)
	}

	return variantID
}

func StockOf(ctx context.Context, t *testing.T, db *sql.DB, variantID int64) int {
	t.Helper()

	var stock int
	if err := db.QueryRowContext(ctx, `
		SELECT stock_quantity FROM product_variants WHERE id = $1
	`, variantID).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock of variant %d: %v", variantID, err)
	}
	return stock
}

// SetPrice changes a variant's live catalog price.
func SetPrice(ctx context.Context, t *testing.T, db *sql.DB, variantID int64, price string) {
	t.Helper()

	if _, err := db.ExecContext(ctx, `
		UPDATE product_variants SET price = $2, updated_at = NOW() WHERE id = $1
	`, variantID, price); err != nil {
		t.Fatalf("failed to set price of variant %d: %v", variantID, err)
	}
}

func CartLines(ctx context.Context, t *testing.T, db *sql.DB, cartID int64) []domain.CartLineItem {
	t.Helper()

	rows, err := db.QueryContext(ctx, `
		SELECT id, cart_id, variant_id, quantity, price_at_time
		FROM cart_products
		WHERE cart_id = $1
		ORDER BY variant_id
	`, cartID)
	if err != nil {
		t.Fatalf("failed to list lines of cart %d: %v", cartID, err)
	}
	defer func() { _ = rows.Close() }()

	var lines []domain.CartLineItem
	for rows.Next() {
		var li domain.CartLineItem
		if err := rows.Scan(&li.ID, &li.CartID, &li.VariantID, &li.Quantity, &li.PriceAtTime); err != nil {
			t.Fatalf("failed to scan cart line: %v", err)
		}
		lines = append(lines, li)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("failed to list lines of cart %d: %v", cartID, err)
	}
	return lines
}

func CountRows(ctx context.Context, t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
