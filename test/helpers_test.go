//go:build integration

package test

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joao-fontenele/storefront-checkout/internal/checkout"
	"github.com/joao-fontenele/storefront-checkout/internal/idempotency"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, db *sql.DB, publisher checkout.Publisher) *checkout.Engine {
	t.Helper()

	engine, err := checkout.NewEngine(db, idempotency.NewStore(db, time.Hour), publisher, newLogger())
	if err != nil {
		t.Fatalf("failed to create checkout engine: %v", err)
	}
	return engine
}

func checkoutRequest(cartID int64) checkout.Request {
	return checkout.Request{
		CartID:        cartID,
		Address:       "1 Main St",
		PaymentMethod: "card",
		ClearCart:     true,
	}
}
