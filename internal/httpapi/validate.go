package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)

	for tag, fn := range map[string]validator.Func{
		"notblank": validators.NotBlank,
		"order_status": func(fl validator.FieldLevel) bool {
			return domain.OrderStatus(fl.Field().String()).Valid()
		},
		"payment_status": func(fl validator.FieldLevel) bool {
			return domain.PaymentStatus(fl.Field().String()).Valid()
		},
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}

	return v
}

// fieldName reports struct fields by their json name. Fields that are not
// part of the body fall back to their path tag.
func fieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		name = f.Tag.Get("path")
	}
	return name
}

// Validate checks v against its validate tags and reports the first failing
// field as a *domain.ValidationError.
func Validate(v any) error {
	return toValidationError("", validate.Struct(v))
}

// ValidateVar checks a single value, such as a header, against tag.
func ValidateVar(field string, value any, tag string) error {
	return toValidationError(field, validate.Var(value, tag))
}

func toValidationError(field string, err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}

	fe := fieldErrs[0]
	if fe.Field() != "" {
		field = fe.Field()
	}
	return domain.NewValidationError(field, validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		if fe.Kind() == reflect.String {
			return "must not exceed " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "order_status", "payment_status", "oneof":
		return fmt.Sprintf("unknown value %v", fe.Value())
	}
	return "is invalid"
}
