package services

import (
	"errors"
	"fmt"

	"waiterfm/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

// validateStruct runs the struct's validate tags and converts failures into an
// InvalidInput error keyed by field name.
func validateStruct(v *validator.Validate, s interface{}, message string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.Wrap(apperrors.InvalidInput, err, message)
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return apperrors.Invalid(message, fields)
}
