package errors

import (
	"errors"
	"fmt"
)

// Domain error types for the banking ledger application
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrLoanNotFound         = errors.New("loan not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrInvalidAccountID     = errors.New("invalid account ID")
	ErrInvalidTransition    = errors.New("loan is not pending")
	ErrUnauthorized         = errors.New("operation not permitted for caller")
	ErrUnauthenticated      = errors.New("no authenticated caller")
	ErrInvalidCredentials   = errors.New("invalid credentials")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// StoreError wraps an infrastructure failure of the backing store. Business
// rule violations are never wrapped in it; only unavailable-medium or
// write-conflict conditions the caller may retry.
type StoreError struct {
	Operation string
	Cause     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during '%s': %v", e.Operation, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func NewStoreError(operation string, cause error) error {
	return &StoreError{
		Operation: operation,
		Cause:     cause,
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrLoanNotFound)
}

func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAccountAlreadyExists)
}

func IsStoreFailure(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}
