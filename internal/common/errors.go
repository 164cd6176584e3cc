// Package common defines shared constants and sentinel errors used across
// the server layers of EventHub. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors. Wrapped with a field-specific message.
	ErrValidation = errors.New("validation error")

	// Token errors (401).
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrUnauthenticated = errors.New("not authorized to access this route")

	// Credential store errors.
	ErrDuplicateIdentity  = errors.New("user with this email or USN already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Authorization errors (403). Both specific kinds wrap ErrForbidden.
	ErrForbidden = errors.New("forbidden")
	ErrNotAdmin  = fmt.Errorf("%w: access denied, admin only", ErrForbidden)
	ErrNotOwner  = fmt.Errorf("%w: you can only manage events you created", ErrForbidden)

	// Registration ledger errors.
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrDeadlinePassed       = errors.New("registration deadline has passed")
	ErrPaymentProofRequired = errors.New("transaction ID is required for paid events")

	// Password reset errors.
	ErrInvalidOrExpired = errors.New("invalid or expired token")
	ErrDeliveryFailed   = errors.New("email could not be sent")
)

// Validationf returns an error wrapping ErrValidation with a client-facing
// message.
func Validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ValidationError carries a human-readable message and matches ErrValidation.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }
