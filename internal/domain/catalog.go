package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64     `json:"product_id"`
	Name        string    `json:"product_name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Variant is a purchasable SKU. StockQuantity is the durable inventory ledger
// and is only ever decremented by checkout.
type Variant struct {
	ID            int64           `json:"variant_id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name,omitempty"`
	Color         string          `json:"color"`
	Size          string          `json:"size"`
	StockQuantity int             `json:"stock_quantity"`
	Price         decimal.Decimal `json:"price"`
	SKU           string          `json:"sku"`
	IsActive      bool            `json:"is_active"`
	// ProductActive mirrors products.is_active so callers can tell a retired
	// product apart from a retired variant.
	ProductActive bool `json:"-"`
}

// Available reports whether the variant can be put into a cart at all.
func (v Variant) Available() bool {
	return v.IsActive && v.ProductActive
}
