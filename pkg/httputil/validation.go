package httputil

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/i18n"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names so clients can map details onto form fields.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate validates a struct using go-playground/validator. Details are
// rendered in the locale carried by ctx.
func Validate(ctx context.Context, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.BadRequest(err.Error())
	}

	details := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		details[e.Field()] = formatValidationError(ctx, e)
	}
	return errors.Validation(details)
}

// ValidateVar checks a single value against a tag expression, e.g. "required,email".
func ValidateVar(ctx context.Context, field string, value interface{}, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return errors.Validation(map[string]string{field: formatValidationError(ctx, errs[0])})
	}
	return errors.Validation(map[string]string{field: i18n.TFromContext(ctx, "validation.invalid")})
}

func formatValidationError(ctx context.Context, e validator.FieldError) string {
	params := map[string]string{"param": strings.ReplaceAll(e.Param(), " ", ", ")}
	switch e.Tag() {
	case "required", "email", "min", "max", "uuid", "oneof", "url", "gte", "lte":
		return i18n.TFromContext(ctx, "validation."+e.Tag(), params)
	case "required_without":
		return i18n.TFromContext(ctx, "validation.required")
	default:
		return i18n.TFromContext(ctx, "validation.invalid")
	}
}
