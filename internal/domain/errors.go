package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	ErrCartNotFound     = fmt.Errorf("cart %w", ErrNotFound)
	ErrVariantNotFound  = fmt.Errorf("variant %w", ErrNotFound)
	ErrAccountNotFound  = fmt.Errorf("account %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrLineItemNotFound = fmt.Errorf("cart line item %w", ErrNotFound)

	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrVariantUnavailable  = errors.New("variant is no longer available")
	ErrIdempotencyMismatch = errors.New("idempotency key reused with a different request payload")

	// ErrTransient marks connection, serialization and deadlock failures.
	// Callers are expected to resubmit; nothing retries automatically.
	ErrTransient = errors.New("transient database error")
)

// InsufficientStockError names the variant whose live stock could not cover
// the requested quantity.
type InsufficientStockError struct {
	VariantID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %d: available %d, requested %d",
		e.VariantID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
