package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/store"
)

type OrderRepository struct {
	q store.Querier
}

func NewOrderRepository(q store.Querier) *OrderRepository {
	return &OrderRepository{q: q}
}

func (r *OrderRepository) WithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

// Insert writes the order header and its line items. It must run inside the
// caller's transaction; ID and CreatedAt are filled in from the database.
func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO orders (email, address, phone_num, total_price, order_status, payment_status, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, order.Email, order.Address, order.PhoneNum, order.TotalPrice,
		order.OrderStatus, order.PaymentStatus, order.PaymentMethod,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = r.q.ExecContext(ctx, `
			INSERT INTO order_line_items (order_id, variant_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
		`, order.ID, item.VariantID, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert line item for variant %d: %w", item.VariantID, err)
		}
	}

	return nil
}

const orderColumns = `id, email, address, phone_num, total_price, order_status, payment_status, payment_method, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner, order *domain.Order) error {
	return row.Scan(&order.ID, &order.Email, &order.Address, &order.PhoneNum, &order.TotalPrice,
		&order.OrderStatus, &order.PaymentStatus, &order.PaymentMethod, &order.CreatedAt)
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order := &domain.Order{}

	err := scanOrder(r.q.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT variant_id, quantity, unit_price
		FROM order_line_items
		WHERE order_id = $1
		ORDER BY variant_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get line items for order %d: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	order.Items = []domain.OrderLineItem{}
	for rows.Next() {
		var item domain.OrderLineItem
		if err := rows.Scan(&item.VariantID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByEmail returns the account's orders newest first. Line items for all
// orders are fetched with a single ANY($1) query.
func (r *OrderRepository) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE email = $1
		ORDER BY created_at DESC, id DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", email, err)
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[int64]*domain.Order)
	var orderIDs []int64

	for rows.Next() {
		var order domain.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderLineItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.q.QueryContext(ctx, `
		SELECT order_id, variant_id, quantity, unit_price
		FROM order_line_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, variant_id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("list line items for %s: %w", email, err)
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID int64
		var item domain.OrderLineItem
		if err := itemRows.Scan(&orderID, &item.VariantID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// UpdateStatus changes the order and/or payment status. Empty values leave
// the stored column untouched.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, orderStatus domain.OrderStatus, paymentStatus domain.PaymentStatus) (*domain.Order, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE orders
		SET order_status = COALESCE(NULLIF($2, ''), order_status),
		    payment_status = COALESCE(NULLIF($3, ''), payment_status),
		    updated_at = NOW()
		WHERE id = $1
	`, id, string(orderStatus), string(paymentStatus))
	if err != nil {
		return nil, fmt.Errorf("update status of order %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, domain.ErrOrderNotFound
	}

	return r.GetByID(ctx, id)
}
