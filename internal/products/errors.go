package products

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the owner has no product with the given ID.
var ErrNotFound = errors.New("product not found")

// ErrEmptyID is returned when trying to store a product with an empty ID.
var ErrEmptyID = errors.New("empty product ID")

// ValidationError reports a rejected product field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
