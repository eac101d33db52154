// Package apperror defines the error kinds services return. Handlers map
// the kind to an HTTP status with errors.Is and show Message to the client.
package apperror

import (
	"errors"
	"fmt"
)

// Kinds. Each AppError wraps exactly one of these.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("unavailable")
)

// AppError is a client-facing failure. Field names the offending request
// attribute for validation and conflict errors.
type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Err }

func NotFound(resource, id string) *AppError {
	return &AppError{Err: ErrNotFound, Message: fmt.Sprintf("%s not found with id %s", resource, id)}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// Conflict reports a uniqueness violation on field, e.g. an email that is
// already registered.
func Conflict(field, message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message, Field: field}
}

func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

// Unauthenticated is returned when an operation needs a caller and the
// request carried none.
func Unauthenticated(message string) *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: message}
}

// Unavailable reports a failed collaborator such as the record store or
// object storage. The result matches both ErrUnavailable and cause.
func Unavailable(collaborator string, cause error) error {
	appErr := &AppError{Err: ErrUnavailable, Message: collaborator + " unavailable"}
	if cause == nil {
		return appErr
	}
	return fmt.Errorf("%w: %w", appErr, cause)
}
