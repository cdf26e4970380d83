package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/store"
)

type Repository struct {
	q store.Querier
}

func NewRepository(q store.Querier) *Repository {
	return &Repository{q: q}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{q: tx}
}

// GetOrCreate relies on the unique constraint on carts.email, so concurrent
// callers for one account always converge on a single row.
func (r *Repository) GetOrCreate(ctx context.Context, email string) (*domain.Cart, error) {
	cart := &domain.Cart{}

	err := r.q.QueryRowContext(ctx, `
		INSERT INTO carts (email)
		VALUES ($1)
		ON CONFLICT (email) DO NOTHING
		RETURNING id, email, created_at
	`, email).Scan(&cart.ID, &cart.Email, &cart.CreatedAt)
	if err == nil {
		return cart, nil
	}
	if store.IsForeignKeyViolation(err) {
		return nil, domain.ErrAccountNotFound
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("create cart for %s: %w", email, err)
	}

	err = r.q.QueryRowContext(ctx, `
		SELECT id, email, created_at
		FROM carts
		WHERE email = $1
	`, email).Scan(&cart.ID, &cart.Email, &cart.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get cart for %s: %w", email, err)
	}

	return cart, nil
}

type lockMode string

const (
	lockShare  lockMode = "FOR SHARE"
	lockUpdate lockMode = "FOR UPDATE"
)

func (r *Repository) get(ctx context.Context, cartID int64, mode lockMode) (*domain.Cart, error) {
	cart := &domain.Cart{}

	err := r.q.QueryRowContext(ctx, `
		SELECT id, email, created_at
		FROM carts
		WHERE id = $1
	`+string(mode), cartID).Scan(&cart.ID, &cart.Email, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("get cart %d: %w", cartID, err)
	}

	return cart, nil
}

// GetForShare blocks while a checkout holds the cart, so line edits cannot
// interleave with a conversion of the same cart.
func (r *Repository) GetForShare(ctx context.Context, cartID int64) (*domain.Cart, error) {
	return r.get(ctx, cartID, lockShare)
}

// GetForUpdate takes the exclusive cart lock used by checkout.
func (r *Repository) GetForUpdate(ctx context.Context, cartID int64) (*domain.Cart, error) {
	return r.get(ctx, cartID, lockUpdate)
}

// AddLine inserts a line or grows the existing (cart, variant) line. The
// cumulative quantity is compared with maxQuantity inside the statement;
// when it would exceed it no row is written and ErrInsufficientStock is
// returned. price_at_time is only set on insert.
func (r *Repository) AddLine(ctx context.Context, cartID, variantID int64, quantity int, price decimal.Decimal, maxQuantity int) (*domain.AddResult, error) {
	result := &domain.AddResult{}

	err := r.q.QueryRowContext(ctx, `
		INSERT INTO cart_products (cart_id, variant_id, quantity, price_at_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, variant_id) DO UPDATE
		SET quantity = cart_products.quantity + EXCLUDED.quantity, updated_at = NOW()
		WHERE cart_products.quantity + EXCLUDED.quantity <= $5
		RETURNING id, quantity, (xmax = 0)
	`, cartID, variantID, quantity, price, maxQuantity).Scan(&result.CartProductID, &result.Quantity, &result.IsNewItem)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInsufficientStock
		}
		return nil, fmt.Errorf("add variant %d to cart %d: %w", variantID, cartID, err)
	}

	return result, nil
}

func (r *Repository) SetQuantity(ctx context.Context, cartID, variantID int64, quantity int) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE cart_products SET quantity = $3, updated_at = NOW()
		WHERE cart_id = $1 AND variant_id = $2
	`, cartID, variantID, quantity)
	if err != nil {
		return fmt.Errorf("set quantity for variant %d in cart %d: %w", variantID, cartID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrLineItemNotFound
	}

	return nil
}

func (r *Repository) RemoveLine(ctx context.Context, cartID, variantID int64) error {
	result, err := r.q.ExecContext(ctx, `
		DELETE FROM cart_products
		WHERE cart_id = $1 AND variant_id = $2
	`, cartID, variantID)
	if err != nil {
		return fmt.Errorf("remove variant %d from cart %d: %w", variantID, cartID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrLineItemNotFound
	}

	return nil
}

// Clear empties the cart. The cart row itself is kept.
func (r *Repository) Clear(ctx context.Context, cartID int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cart_products WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart %d: %w", cartID, err)
	}
	return nil
}

// View returns the display model of an account's cart with the live product
// name and price next to the captured price_at_time.
func (r *Repository) View(ctx context.Context, email string) (*domain.CartView, error) {
	var exists bool
	if err := r.q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)
	`, email).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check account %s: %w", email, err)
	}
	if !exists {
		return nil, domain.ErrAccountNotFound
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT c.id, cp.variant_id, cp.quantity, cp.price_at_time, p.product_name, pv.price
		FROM carts c
		LEFT JOIN cart_products cp ON cp.cart_id = c.id
		LEFT JOIN product_variants pv ON pv.id = cp.variant_id
		LEFT JOIN products p ON p.id = pv.product_id
		WHERE c.email = $1
		ORDER BY cp.variant_id
	`, email)
	if err != nil {
		return nil, fmt.Errorf("view cart for %s: %w", email, err)
	}
	defer func() { _ = rows.Close() }()

	view := &domain.CartView{Email: email, Products: []domain.CartViewItem{}}
	for rows.Next() {
		var (
			cartID       int64
			variantID    sql.NullInt64
			quantity     sql.NullInt64
			priceAtTime  decimal.NullDecimal
			productName  sql.NullString
			currentPrice decimal.NullDecimal
		)
		if err := rows.Scan(&cartID, &variantID, &quantity, &priceAtTime, &productName, &currentPrice); err != nil {
			return nil, err
		}

		view.CartID = &cartID
		if !variantID.Valid {
			continue
		}
		view.Products = append(view.Products, domain.CartViewItem{
			VariantID:    variantID.Int64,
			Quantity:     int(quantity.Int64),
			PriceAtTime:  priceAtTime.Decimal,
			ProductName:  productName.String,
			CurrentPrice: currentPrice.Decimal,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return view, nil
}
