package service

import (
	"errors"
	"fmt"

	"go-pos-backend/internal/codegen"
	"go-pos-backend/internal/repository"
)

var (
	// ErrValidation covers malformed or missing input, rejected before any
	// persistence is touched.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock mirrors the guard sentinel so callers only need
	// the service package.
	ErrInsufficientStock = repository.ErrInsufficientStock

	// ErrInsufficientPayment is returned for cash payments below the total.
	ErrInsufficientPayment = errors.New("amount paid is less than total")

	// ErrCodeGeneration mirrors the code generator sentinel.
	ErrCodeGeneration = codegen.ErrCodeGeneration

	// ErrNotFound is returned for unknown transactions or products.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden is returned when the caller's role lacks the capability.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned for disallowed status changes.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPersistence wraps storage failures surfaced by read paths.
	ErrPersistence = errors.New("storage failure")
)

// CheckoutError wraps any failure that occurs inside the atomic checkout
// unit of work. The underlying cause is reachable via errors.Is/As.
type CheckoutError struct {
	Cause error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout failed: %v", e.Cause)
}

func (e *CheckoutError) Unwrap() error {
	return e.Cause
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
