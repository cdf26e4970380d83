package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/store"
)

type Repository struct {
	q store.Querier
}

func NewRepository(q store.Querier) *Repository {
	return &Repository{q: q}
}

func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{q: tx}
}

// LockLines loads the cart lines and locks their variant rows in variant id
// order, so concurrent checkouts sharing variants always lock in the same
// sequence.
func (r *Repository) LockLines(ctx context.Context, cartID int64) ([]lockedLine, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT cp.id, cp.cart_id, cp.variant_id, cp.quantity, cp.price_at_time,
			v.stock_quantity, p.product_name, v.color, v.size
		FROM cart_products cp
		JOIN product_variants v ON v.id = cp.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE cp.cart_id = $1
		ORDER BY cp.variant_id
		FOR UPDATE OF v
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("lock lines for cart %d: %w", cartID, err)
	}
	defer func() { _ = rows.Close() }()

	var lines []lockedLine
	for rows.Next() {
		var l lockedLine
		if err := rows.Scan(&l.ID, &l.CartID, &l.VariantID, &l.Quantity, &l.PriceAtTime,
			&l.StockQuantity, &l.ProductName, &l.Color, &l.Size); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *Repository) AccountPhone(ctx context.Context, email string) (string, error) {
	var phone sql.NullString

	err := r.q.QueryRowContext(ctx, `
		SELECT phone_num FROM accounts WHERE email = $1
	`, email).Scan(&phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrAccountNotFound
		}
		return "", fmt.Errorf("get phone for %s: %w", email, err)
	}

	return phone.String, nil
}
