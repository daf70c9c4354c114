package shared

import (
	"fmt"
	"strings"
)

// FieldError describes a single rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError reports malformed input shape. It carries every violation found,
// not just the first one.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is matches any ValidationError regardless of its field list
func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	return ok
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, rule, message string) ValidationError {
	return ValidationError{Errors: []FieldError{{Field: field, Rule: rule, Message: message}}}
}
