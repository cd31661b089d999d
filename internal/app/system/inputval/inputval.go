// Package inputval wraps go-playground/validator for request payloads and
// ingestion rows. Errors come back keyed by JSON field name so they can be
// returned to the caller as-is.
package inputval

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to a short reason.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for k, v := range fe {
		parts = append(parts, k+": "+v)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	once sync.Once
	v    *validator.Validate
)

var e164 = regexp.MustCompile(`^\+[1-9]\d{10,14}$`)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return e164.MatchString(fl.Field().String())
		})
	})
	return v
}

// Struct validates s. It returns nil, FieldErrors, or an error for
// non-struct input.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := make(FieldErrors, len(ves))
	for _, fe := range ves {
		out[fieldPath(fe)] = reason(fe)
	}
	return out
}

// AsFieldErrors extracts FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsValidPhone reports whether s is a normalized "+<code><number>" phone.
func IsValidPhone(s string) bool {
	return e164.MatchString(s)
}

// IsValidEmail reports whether s passes the "email" rule.
func IsValidEmail(s string) bool {
	return Validator().Var(s, "required,email") == nil
}

func fieldPath(fe validator.FieldError) string {
	// Namespace is "Struct.field.sub"; drop the root type name.
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be > %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	}
	return "is invalid"
}
