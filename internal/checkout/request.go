package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/httpapi"
)

// Request carries the checkout parameters. CartID comes from the path and is
// kept out of the JSON body, so it does not take part in request hashing.
type Request struct {
	CartID        int64                `json:"-" path:"cart_id" validate:"gt=0"`
	Address       string               `json:"address" validate:"notblank,max=500"`
	PhoneNum      string               `json:"phone_num" validate:"max=15"`
	PaymentMethod string               `json:"payment_method" validate:"max=50"`
	OrderStatus   domain.OrderStatus   `json:"order_status,omitempty" validate:"omitempty,order_status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status,omitempty" validate:"omitempty,payment_status"`
	ClearCart     bool                 `json:"clear_cart"`
}

func (r Request) Validate() error {
	return httpapi.Validate(r)
}

func (r Request) orderStatus() domain.OrderStatus {
	if r.OrderStatus == "" {
		return domain.OrderStatusPending
	}
	return r.OrderStatus
}

func (r Request) paymentStatus() domain.PaymentStatus {
	if r.PaymentStatus == "" {
		return domain.PaymentStatusPending
	}
	return r.PaymentStatus
}

// ResultItem is an order line as reported to the shopper, labelled with the
// product it came from.
type ResultItem struct {
	domain.OrderLineItem
	ProductName    string `json:"product_name"`
	VariantDetails string `json:"variant_details"`
}

// Result is the checkout response body. It is also what gets stored for
// idempotent replays.
type Result struct {
	OrderID     int64              `json:"order_id"`
	TotalPrice  decimal.Decimal    `json:"total_price"`
	OrderStatus domain.OrderStatus `json:"order_status"`
	OrderItems  []ResultItem       `json:"order_items"`
}

func newResult(order *domain.Order, lines []lockedLine) *Result {
	items := make([]ResultItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, ResultItem{
			OrderLineItem:  l.orderItem(),
			ProductName:    l.ProductName,
			VariantDetails: l.variantDetails(),
		})
	}

	return &Result{
		OrderID:     order.ID,
		TotalPrice:  order.TotalPrice,
		OrderStatus: order.OrderStatus,
		OrderItems:  items,
	}
}
