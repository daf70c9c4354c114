// Package validation checks service inputs declared with `validate` struct tags and
// reports every violation as a shared.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator. Field names are reported by their json tag.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		instance = v
	})
	return instance
}

// Struct validates s and converts validator failures into a shared.ValidationError
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	return ProcessValidationErrors(validationErrors)
}

// ProcessValidationErrors maps each failed field to its rule and a readable message
func ProcessValidationErrors(validationErrors validator.ValidationErrors) shared.ValidationError {
	out := shared.ValidationError{Errors: make([]shared.FieldError, 0, len(validationErrors))}
	for _, fe := range validationErrors {
		out.Errors = append(out.Errors, shared.FieldError{
			Field:   fe.Field(),
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
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "datetime":
		return fmt.Sprintf("must use the %s format", fe.Param())
	default:
		return fmt.Sprintf("failed the %s rule", fe.Tag())
	}
}

// Collector accumulates field errors found by explicit checks alongside tag rules
type Collector struct {
	errs []shared.FieldError
}

// Merge runs tag validation on s and keeps its field errors. Non-validation
// failures are returned as is.
func (c *Collector) Merge(s interface{}) error {
	err := Struct(s)
	if err == nil {
		return nil
	}
	var ve shared.ValidationError
	if errors.As(err, &ve) {
		c.errs = append(c.errs, ve.Errors...)
		return nil
	}
	return err
}

// Add records a failed explicit check
func (c *Collector) Add(field, rule, msg string) {
	c.errs = append(c.errs, shared.FieldError{Field: field, Rule: rule, Message: msg})
}

// Err returns the accumulated ValidationError, or nil when nothing failed
func (c *Collector) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return shared.ValidationError{Errors: c.errs}
}
