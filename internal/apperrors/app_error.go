package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries an HTTP-ish status code alongside the underlying error.
// Repositories use it to annotate infrastructure failures without losing the cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches ErrNotFound via errors.Is.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

// Is lets sentinel checks see through the AppError wrapper.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
