package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

// maxOrderTotal is the largest value orders.total_price (NUMERIC(10,2)) holds.
var maxOrderTotal = decimal.RequireFromString("99999999.99")

// lockedLine is a cart line joined with the locked variant row.
type lockedLine struct {
	domain.CartLineItem
	StockQuantity int
	ProductName   string
	Color         string
	Size          string
}

func (l lockedLine) orderItem() domain.OrderLineItem {
	return domain.OrderLineItem{
		VariantID: l.VariantID,
		Quantity:  l.Quantity,
		UnitPrice: l.PriceAtTime,
	}
}

func (l lockedLine) variantDetails() string {
	return l.Color + " - " + l.Size
}

// validateStock reports the first line whose quantity exceeds the locked
// stock. Lines are ordered by variant id.
func validateStock(lines []lockedLine) error {
	for _, l := range lines {
		if l.Quantity > l.StockQuantity {
			return &domain.InsufficientStockError{
				VariantID: l.VariantID,
				Available: l.StockQuantity,
				Requested: l.Quantity,
			}
		}
	}
	return nil
}

// total sums price_at_time × quantity. Current catalog prices are never
// consulted. Totals the orders table cannot store are rejected.
func total(lines []lockedLine) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	if sum.GreaterThan(maxOrderTotal) {
		return decimal.Zero, domain.NewValidationError("total_price", "must not exceed "+maxOrderTotal.StringFixed(2))
	}
	return sum, nil
}

func orderItems(lines []lockedLine) []domain.OrderLineItem {
	items := make([]domain.OrderLineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, l.orderItem())
	}
	return items
}
