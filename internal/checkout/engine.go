package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront-checkout/internal/cart"
	"github.com/joao-fontenele/storefront-checkout/internal/catalog"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/idempotency"
	"github.com/joao-fontenele/storefront-checkout/internal/orders"
	"github.com/joao-fontenele/storefront-checkout/internal/store"
)

var (
	tracer = otel.Tracer("checkout")
	meter  = otel.Meter("checkout")
)

// Publisher delivers order events after commit. *messaging.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Engine struct {
	db        *sql.DB
	carts     *cart.Repository
	variants  *catalog.VariantRepository
	orders    *orders.OrderRepository
	lines     *Repository
	keys      *idempotency.Store
	publisher Publisher
	logger    *slog.Logger

	completed metric.Int64Counter
	rejected  metric.Int64Counter
}

// NewEngine wires the checkout engine. publisher may be nil, in which case
// no events are emitted.
func NewEngine(db *sql.DB, keys *idempotency.Store, publisher Publisher, logger *slog.Logger) (*Engine, error) {
	completed, err := meter.Int64Counter("storefront.checkout.completed",
		metric.WithDescription("Checkouts that produced an order"),
	)
	if err != nil {
		return nil, fmt.Errorf("create completed counter: %w", err)
	}

	rejected, err := meter.Int64Counter("storefront.checkout.rejected",
		metric.WithDescription("Checkouts rolled back, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rejected counter: %w", err)
	}

	return &Engine{
		db:        db,
		carts:     cart.NewRepository(db),
		variants:  catalog.NewVariantRepository(db),
		orders:    orders.NewOrderRepository(db),
		lines:     NewRepository(db),
		keys:      keys,
		publisher: publisher,
		logger:    logger,
		completed: completed,
		rejected:  rejected,
	}, nil
}

func endpointFor(cartID int64) string {
	return "/orders/from-cart/" + strconv.FormatInt(cartID, 10)
}

// Checkout converts the cart into an order in a single transaction. Stock is
// validated against the locked variant rows before anything is written; any
// failure rolls the whole conversion back. When idempotencyKey is set, a
// replay of the same request returns the stored result without side effects.
func (e *Engine) Checkout(ctx context.Context, req Request, idempotencyKey string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "checkout",
		trace.WithAttributes(
			attribute.Int64("cart.id", req.CartID),
			attribute.Bool("checkout.clear_cart", req.ClearCart),
			attribute.Bool("checkout.idempotent", idempotencyKey != ""),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		e.reject(ctx, span, err)
		return nil, err
	}

	var requestHash string
	if idempotencyKey != "" {
		var err error
		requestHash, err = idempotency.HashRequest(req)
		if err != nil {
			e.reject(ctx, span, err)
			return nil, err
		}
	}

	var (
		result   *Result
		order    *domain.Order
		replayed bool
	)

	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		carts := e.carts.WithTx(tx)

		c, err := carts.GetForUpdate(ctx, req.CartID)
		if err != nil {
			return err
		}

		endpoint := endpointFor(req.CartID)
		if idempotencyKey != "" {
			cached, err := e.keys.WithTx(tx).Replay(ctx, idempotencyKey, c.Email, endpoint, requestHash)
			if err != nil {
				return err
			}
			if cached != nil {
				var prior Result
				if err := json.Unmarshal(cached, &prior); err != nil {
					return fmt.Errorf("decode stored checkout result: %w", err)
				}
				result, replayed = &prior, true
				return nil
			}
		}

		lines, err := e.lines.WithTx(tx).LockLines(ctx, req.CartID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		if err := validateStock(lines); err != nil {
			return err
		}

		orderTotal, err := total(lines)
		if err != nil {
			return err
		}

		phone := req.PhoneNum
		if phone == "" {
			phone, err = e.lines.WithTx(tx).AccountPhone(ctx, c.Email)
			if err != nil {
				return err
			}
		}

		order = &domain.Order{
			Email:         c.Email,
			Address:       req.Address,
			PhoneNum:      phone,
			TotalPrice:    orderTotal,
			OrderStatus:   req.orderStatus(),
			PaymentStatus: req.paymentStatus(),
			PaymentMethod: req.PaymentMethod,
			Items:         orderItems(lines),
		}
		if err := e.orders.WithTx(tx).Insert(ctx, order); err != nil {
			return err
		}

		variants := e.variants.WithTx(tx)
		for _, l := range lines {
			if err := variants.Decrement(ctx, l.VariantID, l.Quantity); err != nil {
				return err
			}
		}

		if req.ClearCart {
			if err := carts.Clear(ctx, req.CartID); err != nil {
				return err
			}
		}

		result = newResult(order, lines)

		if idempotencyKey != "" {
			if err := e.keys.WithTx(tx).Save(ctx, idempotencyKey, c.Email, endpoint, requestHash, result); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		e.reject(ctx, span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", result.OrderID))

	if replayed {
		span.SetAttributes(attribute.Bool("checkout.replayed", true))
		e.logger.Info("checkout replayed", "cart_id", req.CartID, "order_id", result.OrderID)
		return result, nil
	}

	e.completed.Add(ctx, 1)
	e.publish(ctx, order)

	e.logger.Info("checkout completed",
		"cart_id", req.CartID,
		"order_id", order.ID,
		"total_price", order.TotalPrice.StringFixed(2),
		"items", len(order.Items),
	)

	return result, nil
}

func (e *Engine) publish(ctx context.Context, order *domain.Order) {
	if e.publisher == nil {
		return
	}

	event := domain.OrderPlacedEvent{
		EventID:    uuid.New().String(),
		OrderID:    order.ID,
		Email:      order.Email,
		TotalPrice: order.TotalPrice,
		Items:      order.Items,
		PlacedAt:   order.CreatedAt.UTC(),
	}
	if event.PlacedAt.IsZero() {
		event.PlacedAt = time.Now().UTC()
	}

	if err := e.publisher.Publish(ctx, strconv.FormatInt(order.ID, 10), event); err != nil {
		e.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
	}
}

func (e *Engine) reject(ctx context.Context, span trace.Span, err error) {
	reason := rejectReason(err)
	if reason == "error" || reason == "transient" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("checkout.rejected", reason))
	e.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func rejectReason(err error) string {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return "validation"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrIdempotencyMismatch):
		return "idempotency_mismatch"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	}
	return "error"
}
