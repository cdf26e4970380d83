package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type shippingForm struct {
	OrderID int64                `json:"-" path:"order_id" validate:"gt=0"`
	Email   string               `json:"email" validate:"required,email"`
	Address string               `json:"address,omitempty" validate:"notblank,max=10"`
	Status  domain.OrderStatus   `json:"status" validate:"omitempty,order_status"`
	Payment domain.PaymentStatus `json:"payment" validate:"omitempty,payment_status"`
}

func validForm() shippingForm {
	return shippingForm{OrderID: 1, Email: "shopper@example.com", Address: "1 Main St"}
}

func TestValidate(t *testing.T) {
	t.Run("valid form", func(t *testing.T) {
		if err := Validate(validForm()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name    string
		field   string
		message string
		mod     func(*shippingForm)
	}{
		{"path field uses path tag", "order_id", "must be greater than 0", func(f *shippingForm) { f.OrderID = 0 }},
		{"missing email", "email", "is required", func(f *shippingForm) { f.Email = "" }},
		{"malformed email", "email", "must be a valid email address", func(f *shippingForm) { f.Email = "not-an-email" }},
		{"blank address", "address", "is required", func(f *shippingForm) { f.Address = "   " }},
		{"long address counts runes", "address", "must not exceed 10 characters", func(f *shippingForm) { f.Address = strings.Repeat("é", 11) }},
		{"unknown order status", "status", "unknown value lost", func(f *shippingForm) { f.Status = "lost" }},
		{"unknown payment status", "payment", "unknown value maybe", func(f *shippingForm) { f.Payment = "maybe" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mod(&form)

			var validationErr *domain.ValidationError
			if err := Validate(form); !errors.As(err, &validationErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, validationErr.Field)
			}
			if validationErr.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, validationErr.Message)
			}
		})
	}

	t.Run("multibyte address within limit", func(t *testing.T) {
		form := validForm()
		form.Address = strings.Repeat("é", 10)
		if err := Validate(form); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("known statuses pass", func(t *testing.T) {
		form := validForm()
		form.Status = domain.OrderStatusShipped
		form.Payment = domain.PaymentStatusRefunded
		if err := Validate(form); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestValidateVar(t *testing.T) {
	if err := ValidateVar("Idempotency-Key", strings.Repeat("k", 255), "max=255"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	var validationErr *domain.ValidationError
	if err := ValidateVar("Idempotency-Key", strings.Repeat("k", 256), "max=255"); !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.Field != "Idempotency-Key" || validationErr.Message != "must not exceed 255 characters" {
		t.Errorf("unexpected error: %+v", validationErr)
	}
}

func TestValidate_ClassifiedAsBadRequest(t *testing.T) {
	form := validForm()
	form.Email = ""

	status, detail := Classify(Validate(form))
	if status != http.StatusBadRequest || detail.Code != "VALIDATION_ERROR" {
		t.Errorf("expected 400 VALIDATION_ERROR, got %d %s", status, detail.Code)
	}
	if detail.Details["email"] != "is required" {
		t.Errorf("expected email detail, got %v", detail.Details)
	}
}
