package checkout

import (
	"errors"
	"strings"
	"testing"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

func validRequest() Request {
	return Request{CartID: 1, Address: "1 Main St", PaymentMethod: "card"}
}

func TestRequestValidate(t *testing.T) {
	t.Run("minimal request is valid", func(t *testing.T) {
		if err := validRequest().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name  string
		field string
		mod   func(*Request)
	}{
		{"missing cart", "cart_id", func(r *Request) { r.CartID = 0 }},
		{"blank address", "address", func(r *Request) { r.Address = "   " }},
		{"long address", "address", func(r *Request) { r.Address = strings.Repeat("a", 501) }},
		{"long phone", "phone_num", func(r *Request) { r.PhoneNum = "1234567890123456" }},
		{"long payment method", "payment_method", func(r *Request) { r.PaymentMethod = strings.Repeat("p", 51) }},
		{"unknown order status", "order_status", func(r *Request) { r.OrderStatus = "lost" }},
		{"unknown payment status", "payment_status", func(r *Request) { r.PaymentStatus = "maybe" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mod(&req)

			var validationErr *domain.ValidationError
			if err := req.Validate(); !errors.As(err, &validationErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, validationErr.Field)
			}
		})
	}
}

func TestRequestStatusDefaults(t *testing.T) {
	req := validRequest()
	if req.orderStatus() != domain.OrderStatusPending || req.paymentStatus() != domain.PaymentStatusPending {
		t.Error("expected pending defaults")
	}

	req.OrderStatus = domain.OrderStatusConfirmed
	req.PaymentStatus = domain.PaymentStatusPaid
	if req.orderStatus() != domain.OrderStatusConfirmed || req.paymentStatus() != domain.PaymentStatusPaid {
		t.Error("expected explicit statuses to be kept")
	}
}
