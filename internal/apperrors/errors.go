package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller may not act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrCountMismatch indicates that a bulk write affected fewer rows than requested.
var ErrCountMismatch = errors.New("bulk write count mismatch")

// ErrInternal is returned when the failure should not be exposed to the caller.
var ErrInternal = errors.New("internal error")

// AppError wraps a lower level error with a status code and a message safe to log.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap allows errors.Is / errors.As to see the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}
