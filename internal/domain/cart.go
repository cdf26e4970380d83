package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        int64     `json:"cart_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type CartLineItem struct {
	ID          int64           `json:"cart_product_id"`
	CartID      int64           `json:"cart_id"`
	VariantID   int64           `json:"variant_id"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
}

// Subtotal is the billed amount for the line, based on the captured price.
func (li CartLineItem) Subtotal() decimal.Decimal {
	return li.PriceAtTime.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// CartView is the display read model of a cart. CartID is nil when the account
// has never created a cart.
type CartView struct {
	CartID   *int64         `json:"cart_id"`
	Email    string         `json:"email"`
	Products []CartViewItem `json:"products"`
}

type CartViewItem struct {
	VariantID    int64           `json:"variant_id"`
	Quantity     int             `json:"quantity"`
	PriceAtTime  decimal.Decimal `json:"price_at_time"`
	ProductName  string          `json:"product_name"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// AddResult describes the line item produced by adding a variant to a cart.
type AddResult struct {
	CartProductID int64 `json:"cart_product_id"`
	Quantity      int   `json:"quantity"`
	IsNewItem     bool  `json:"is_new_item"`
}
