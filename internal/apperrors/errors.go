package apperrors

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Services return these; the HTTP layer maps them
// to status codes. None of them are retried automatically except
// ProviderError, which may be transient.
var (
	ErrNotFound            = errors.New("record not found")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrInvalidState        = errors.New("invalid state for this operation")
	ErrDuplicateQuote      = errors.New("provider already has a quote on this job")
	ErrJobNotOpen          = errors.New("job is not open for quotes")
	ErrJobNotReady         = errors.New("job is not ready for payment")
	ErrAlreadyReleased     = errors.New("payment already released")
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInconsistency marks a violated internal invariant, e.g. a webhook
	// referencing an unknown transaction. Always logged loudly.
	ErrInconsistency = errors.New("internal inconsistency")
)

// ValidationError is malformed user input; always user-correctable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ProviderError wraps a failed or timed-out call to the external payment
// provider. The operation that hit it must leave the system in its
// last-known-good state.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func Provider(op string, err error) *ProviderError {
	return &ProviderError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
