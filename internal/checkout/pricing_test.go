package checkout

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

func line(variantID int64, quantity int, price string, stock int) lockedLine {
	l := lockedLine{StockQuantity: stock}
	l.VariantID = variantID
	l.Quantity = quantity
	if price != "" {
		l.PriceAtTime = decimal.RequireFromString(price)
	}
	return l
}

func TestTotal(t *testing.T) {
	t.Run("multiplies captured prices", func(t *testing.T) {
		got, err := total([]lockedLine{line(1, 2, "9.99", 2)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(decimal.RequireFromString("19.98")) {
			t.Errorf("expected 19.98, got %s", got)
		}
	})

	t.Run("sums without float drift", func(t *testing.T) {
		got, err := total([]lockedLine{line(1, 3, "0.10", 0), line(2, 1, "0.20", 0)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.StringFixed(2) != "0.50" {
			t.Errorf("expected 0.50, got %s", got.StringFixed(2))
		}
	})

	t.Run("empty is zero", func(t *testing.T) {
		got, err := total(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.IsZero() {
			t.Errorf("expected zero, got %s", got)
		}
	})

	t.Run("largest storable total passes", func(t *testing.T) {
		got, err := total([]lockedLine{line(1, 1, "99999999.99", 1)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.StringFixed(2) != "99999999.99" {
			t.Errorf("expected 99999999.99, got %s", got.StringFixed(2))
		}
	})

	t.Run("rejects totals the orders table cannot hold", func(t *testing.T) {
		_, err := total([]lockedLine{line(1, 10000, "99999.99", 10000)})

		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if validationErr.Field != "total_price" {
			t.Errorf("expected field total_price, got %s", validationErr.Field)
		}
	})
}

func TestValidateStock(t *testing.T) {
	t.Run("quantity equal to stock passes", func(t *testing.T) {
		if err := validateStock([]lockedLine{line(1, 5, "", 5)}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("reports first short variant", func(t *testing.T) {
		err := validateStock([]lockedLine{line(1, 1, "", 10), line(4, 3, "", 2), line(9, 8, "", 0)})

		var stockErr *domain.InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
		if stockErr.VariantID != 4 || stockErr.Available != 2 || stockErr.Requested != 3 {
			t.Errorf("unexpected error fields: %+v", stockErr)
		}
	})
}

func TestOrderItems(t *testing.T) {
	items := orderItems([]lockedLine{line(3, 2, "4.50", 7)})

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].VariantID != 3 || items[0].Quantity != 2 || !items[0].UnitPrice.Equal(decimal.RequireFromString("4.5")) {
		t.Errorf("unexpected item: %+v", items[0])
	}
}

func TestNewResult(t *testing.T) {
	l := line(3, 2, "4.50", 7)
	l.ProductName = "Canvas Tote"
	l.Color = "navy"
	l.Size = "L"

	order := &domain.Order{ID: 12, TotalPrice: decimal.RequireFromString("9.00"), OrderStatus: domain.OrderStatusPending}
	result := newResult(order, []lockedLine{l})

	if result.OrderID != 12 || result.OrderStatus != domain.OrderStatusPending {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.OrderItems) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.OrderItems))
	}
	item := result.OrderItems[0]
	if item.VariantID != 3 || item.ProductName != "Canvas Tote" || item.VariantDetails != "navy - L" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestRejectReason(t *testing.T) {
	cases := map[string]error{
		"validation":           domain.NewValidationError("address", "is required"),
		"insufficient_stock":   &domain.InsufficientStockError{VariantID: 1},
		"empty_cart":           domain.ErrEmptyCart,
		"idempotency_mismatch": domain.ErrIdempotencyMismatch,
		"not_found":            domain.ErrCartNotFound,
		"transient":            domain.ErrTransient,
		"error":                errors.New("boom"),
	}

	for want, err := range cases {
		t.Run(want, func(t *testing.T) {
			if got := rejectReason(err); got != want {
				t.Errorf("expected %q, got %q", want, got)
			}
		})
	}
}
