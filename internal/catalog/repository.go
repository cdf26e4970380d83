package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/store"
)

type VariantRepository struct {
	q store.Querier
}

func NewVariantRepository(q store.Querier) *VariantRepository {
	return &VariantRepository{q: q}
}

// WithTx returns a repository bound to tx.
func (r *VariantRepository) WithTx(tx *sql.Tx) *VariantRepository {
	return &VariantRepository{q: tx}
}

const variantColumns = `
	v.id, v.product_id, p.product_name, v.color, v.size,
	v.stock_quantity, v.price, COALESCE(v.sku, ''), v.is_active, p.is_active`

func scanVariant(row interface{ Scan(...any) error }, v *domain.Variant) error {
	return row.Scan(&v.ID, &v.ProductID, &v.ProductName, &v.Color, &v.Size,
		&v.StockQuantity, &v.Price, &v.SKU, &v.IsActive, &v.ProductActive)
}

func (r *VariantRepository) Get(ctx context.Context, id int64) (*domain.Variant, error) {
	var v domain.Variant

	err := scanVariant(r.q.QueryRowContext(ctx, `
		SELECT`+variantColumns+`
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1
	`, id), &v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, fmt.Errorf("get variant %d: %w", id, err)
	}

	return &v, nil
}

func (r *VariantRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.Variant, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT`+variantColumns+`
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.product_id = $1
		ORDER BY v.id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list variants for product %d: %w", productID, err)
	}
	defer func() { _ = rows.Close() }()

	variants := []domain.Variant{}
	for rows.Next() {
		var v domain.Variant
		if err := scanVariant(rows, &v); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return variants, nil
}

// Decrement consumes quantity units of stock. The guard in the WHERE clause
// keeps stock_quantity from ever going negative even if a caller skipped the
// row lock.
func (r *VariantRepository) Decrement(ctx context.Context, variantID int64, quantity int) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE product_variants
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
	`, variantID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock for variant %d: %w", variantID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return &domain.InsufficientStockError{VariantID: variantID, Requested: quantity}
	}

	return nil
}
