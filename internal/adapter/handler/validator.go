package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"progress-hub/internal/domain"

	"github.com/go-playground/validator/v10"
)

// RequestValidator implements echo.Validator on top of go-playground/validator.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator that reports fields by their
// json or param names and understands the videoid tag.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "param", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("videoid", func(fl validator.FieldLevel) bool {
		return domain.ValidateVideoID(fl.Field().String()) == nil
	})

	return &RequestValidator{validate: v}
}

// Validate validates a struct and returns a *ValidationError on failure.
func (rv *RequestValidator) Validate(i any) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	return newValidationError(verrs)
}

// ValidationError carries per-field messages for a 400 response.
type ValidationError struct {
	Fields map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "is required"
		case "gte":
			fields[fe.Field()] = fmt.Sprintf("must be greater than or equal to %s", fe.Param())
		case "videoid":
			fields[fe.Field()] = "must be an 11 character video id"
		default:
			fields[fe.Field()] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
	}
	return &ValidationError{Fields: fields}
}
