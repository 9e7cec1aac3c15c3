// Package errs defines the closed error taxonomy shared by the wallet core.
// Callers classify with errors.Is / errors.As; no other error kinds cross a
// service boundary.
package errs

import (
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials covers unknown identifier and wrong password alike.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	// ErrSessionInvalid covers unknown, expired and revoked tokens alike.
	ErrSessionInvalid = fmt.Errorf("session invalid")
	// ErrDuplicateIdentity is returned when username or email already exists.
	ErrDuplicateIdentity = fmt.Errorf("username or email already exists")
	// ErrInsufficientFunds rejects a debit that would take a balance negative.
	ErrInsufficientFunds = fmt.Errorf("insufficient funds")
)

// ValidationError reports a field-level rejection of caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for field.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// LockoutError is returned while an account lockout is in effect.
type LockoutError struct {
	Until time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}

// IntegrityError signals ciphertext that failed authentication on decrypt.
// It is fatal: the caller must escalate, never substitute a default value.
type IntegrityError struct {
	Entity string
	ID     string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity failure on %s %s", e.Entity, e.ID)
}

// ResourceError wraps persistence timeouts and unavailability. Retryable.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource unavailable during %s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
