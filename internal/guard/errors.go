package guard

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every error returned by this package.
	ErrValidation = errors.New("safesql: validation failed")

	// ErrUnsafeInput is returned when a literal or identifier contains
	// characters that could change the structure of a statement.
	ErrUnsafeInput = errors.New("safesql: unsafe input")

	// ErrInvalidToken is returned when an operator, relation, join type or
	// sort direction is not one of the accepted values.
	ErrInvalidToken = errors.New("safesql: invalid token")

	// ErrTableNotAllowed is returned when a table is missing from the
	// allow-list.
	ErrTableNotAllowed = errors.New("safesql: table not allowed")

	// ErrQueryNotAllowed is returned when a raw statement is missing from
	// the allow-list.
	ErrQueryNotAllowed = errors.New("safesql: query not allowed")
)

// ValidationError describes a rejected value.
type ValidationError struct {
	Value   string
	Context string
	Reason  string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("safesql: invalid %s %q: %s", e.Context, e.Value, e.Reason)
}

// Unwrap returns the sentinel that classifies the failure.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(value, context, reason string, sentinel error) *ValidationError {
	return &ValidationError{Value: value, Context: context, Reason: reason, Err: sentinel}
}
