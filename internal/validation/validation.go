// Package validation wraps go-playground/validator and reports failures as
// field-level details that handlers can return to clients.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error is returned when input fails validation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewError builds an Error for one field.
func NewError(field, rule, message string) *Error {
	return &Error{Fields: []FieldError{{Field: field, Rule: rule, Message: message}}}
}

// Merge joins field errors from several validation passes. Nil inputs are skipped.
func Merge(errs ...*Error) *Error {
	var merged []FieldError
	for _, e := range errs {
		if e != nil {
			merged = append(merged, e.Fields...)
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return &Error{Fields: merged}
}

// Struct validates v using its `validate` tags. Field names follow the json tags.
func Struct(v any) *Error {
	return translate(validate.Struct(v), "")
}

// Var validates a single value against tag, reporting failures under field.
func Var(field string, value any, tag string) *Error {
	return translate(validate.Var(value, tag), field)
}

func translate(err error, field string) *Error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewError(field, "invalid", err.Error())
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		name := fe.Field()
		if field != "" {
			name = field
		}
		out.Fields = append(out.Fields, FieldError{
			Field:   name,
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}
