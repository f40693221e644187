package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeStorage      ErrorCode = "STORAGE"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error with the same code and message, so sentinel
// comparisons keep working after a sentinel has been wrapped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError reports malformed input.
func ValidationError(message string) *Error {
	return NewError(ErrCodeInvalid, message)
}

// StorageError classifies a persistence failure. Nil stays nil.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var dErr *Error
	if errors.As(err, &dErr) {
		return err
	}
	return WrapError(ErrCodeStorage, op, err)
}

// Common domain errors.
var (
	ErrUserNotFound   = NewError(ErrCodeNotFound, "user not found")
	ErrPoolNotFound   = NewError(ErrCodeNotFound, "pool not found")
	ErrTaskNotFound   = NewError(ErrCodeNotFound, "task not found")
	ErrForbidden      = NewError(ErrCodeForbidden, "access to task denied")
	ErrUnauthorized   = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrTokenRevoked   = NewError(ErrCodeUnauthorized, "token revoked")
	ErrUserDisabled   = NewError(ErrCodeUnauthorized, "user disabled")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")

	ErrAssignmentRequired = ValidationError("must assign to a user or a pool")
	ErrAssignmentConflict = ValidationError("must assign to either a user or a pool, not both")
	ErrPoolDisabled       = ValidationError("pool is disabled")
	ErrHoursOutOfRange    = ValidationError("hours must be between 0 and 999")
	ErrMinutesOutOfRange  = ValidationError("minutes must be between 0 and 59")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
