package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError maps err onto a status code and structured body. Anything that is
// not a recognised business error is logged and reported as a 500.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, detail := Classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	} else {
		logger.Info("request rejected", "code", detail.Code, "reason", err.Error(), "path", r.URL.Path)
	}
	WriteJSON(w, logger, status, ErrorResponse{Error: detail})
}

var notFoundErrors = []error{
	domain.ErrCartNotFound,
	domain.ErrVariantNotFound,
	domain.ErrAccountNotFound,
	domain.ErrOrderNotFound,
	domain.ErrLineItemNotFound,
}

func Classify(err error) (int, ErrorDetail) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		detail := ErrorDetail{Code: "VALIDATION_ERROR", Message: "Validation failed"}
		if validationErr.Field != "" {
			detail.Details = map[string]any{validationErr.Field: validationErr.Message}
		} else {
			detail.Message = validationErr.Message
		}
		return http.StatusBadRequest, detail
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return http.StatusBadRequest, ErrorDetail{
			Code:    "STOCK_INSUFFICIENT",
			Message: stockErr.Error(),
			Details: map[string]any{
				"variant_id":         stockErr.VariantID,
				"available_stock":    stockErr.Available,
				"requested_quantity": stockErr.Requested,
			},
		}
	}

	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusBadRequest, ErrorDetail{Code: "STOCK_INSUFFICIENT", Message: domain.ErrInsufficientStock.Error()}
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, ErrorDetail{Code: "EMPTY_CART", Message: domain.ErrEmptyCart.Error()}
	case errors.Is(err, domain.ErrVariantUnavailable):
		return http.StatusBadRequest, ErrorDetail{Code: "VARIANT_UNAVAILABLE", Message: domain.ErrVariantUnavailable.Error()}
	case errors.Is(err, domain.ErrIdempotencyMismatch):
		return http.StatusConflict, ErrorDetail{Code: "IDEMPOTENCY_MISMATCH", Message: domain.ErrIdempotencyMismatch.Error()}
	case errors.Is(err, domain.ErrNotFound):
		message := domain.ErrNotFound.Error()
		for _, nf := range notFoundErrors {
			if errors.Is(err, nf) {
				message = nf.Error()
				break
			}
		}
		return http.StatusNotFound, ErrorDetail{Code: "NOT_FOUND", Message: message}
	}

	return http.StatusInternalServerError, ErrorDetail{Code: "INTERNAL_ERROR", Message: "internal server error"}
}

// DecodeJSON decodes the request body into v, reporting malformed input and
// unknown fields as a validation error.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Message: "invalid request body"}
	}
	return nil
}

// PathID parses a positive integer path parameter.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, domain.NewValidationError(name, "is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}
