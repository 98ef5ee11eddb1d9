// Package validate defines the error returned when a request is missing a
// required field or carries a wrong-typed or out-of-range value.
package validate

import (
	"errors"
	"fmt"
)

// Error is a validation failure on a single request field. It is always
// reported to the caller, never dropped.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Required reports that field was absent.
func Required(field string) *Error {
	return &Error{Field: field, Message: field + " required"}
}

// Invalid reports that field had an unusable value.
func Invalid(field, format string, args ...interface{}) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a validation Error.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}
