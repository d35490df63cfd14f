package domain

import (
	"errors"
	"fmt"
)

// Fault classes. Every error a service returns either matches one of these via
// errors.Is or is treated as an internal fault.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access forbidden")
	ErrNotFound        = errors.New("not found")
	ErrGone            = errors.New("resource no longer available")
	ErrConflict        = errors.New("conflict")
	ErrInvalidState    = errors.New("invalid state")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrDataIntegrity   = errors.New("data integrity fault")
)

// Error is a specific fault belonging to one class. errors.Is matches both the
// value itself and its class.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool { return target == e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrInvalidToken       = newError(ErrUnauthenticated, "invalid or expired session")
	ErrInvalidCredentials = newError(ErrUnauthenticated, "invalid credentials")
	ErrUserNotFound       = newError(ErrNotFound, "user not found")
	ErrAccountBanned      = newError(ErrForbidden, "account is banned")
	ErrInsufficientRole   = newError(ErrForbidden, "insufficient role")
	ErrEmailTaken         = newError(ErrConflict, "email already registered")

	ErrAgentNotFound          = newError(ErrNotFound, "agent not found")
	ErrAgentGone              = newError(ErrGone, "agent has been removed")
	ErrSeriesNotFound         = newError(ErrNotFound, "series not found")
	ErrSeriesGone             = newError(ErrGone, "series has been removed")
	ErrExchangeNotFound       = newError(ErrNotFound, "exchange not found")
	ErrActivationCodeNotFound = newError(ErrNotFound, "activation code not found")
	ErrActivationCodeExpired  = newError(ErrGone, "activation code has expired")
	ErrOrderNotFound          = newError(ErrNotFound, "order not found")
	ErrAlreadyOwned           = newError(ErrConflict, "agent already owned")
)

// Validationf builds a ValidationError with a caller-visible message.
func Validationf(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

// Forbiddenf builds a Forbidden error with a caller-visible message.
func Forbiddenf(format string, args ...any) error {
	return newError(ErrForbidden, fmt.Sprintf(format, args...))
}

// Conflictf builds a Conflict error with a caller-visible message.
func Conflictf(format string, args ...any) error {
	return newError(ErrConflict, fmt.Sprintf(format, args...))
}

// InvalidStatef builds an InvalidState error with a caller-visible message.
func InvalidStatef(format string, args ...any) error {
	return newError(ErrInvalidState, fmt.Sprintf(format, args...))
}
