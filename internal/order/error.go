package order

import (
	"errors"

	"bitebuddy-be/internal/validation"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")

	errDuplicateOrderNumber = errors.New("duplicate order number")
)

// ValidationError rejects a request before anything is written.
type ValidationError = validation.FieldError

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

const pgUniqueViolation = "23505"
