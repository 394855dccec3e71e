package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError classifies a request-scoped failure so handlers can map it to a
// transport status code and a safe client message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrValidation   = New("VALIDATION_FAILURE", "Invalid request data", http.StatusBadRequest)
	ErrUnauthorized = New("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrForbidden    = New("FORBIDDEN", "You do not have permission to do this", http.StatusForbidden)
	ErrNotFound     = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrConflict     = New("CONFLICT", "Resource conflict", http.StatusConflict)
	ErrInternal     = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

// Validation returns a VALIDATION_FAILURE with a caller-facing message.
func Validation(message string) *APIError {
	return New("VALIDATION_FAILURE", message, http.StatusBadRequest)
}

// Forbidden returns a FORBIDDEN with a caller-facing message.
func Forbidden(message string) *APIError {
	return New("FORBIDDEN", message, http.StatusForbidden)
}

// Conflict returns a CONFLICT with a caller-facing message.
func Conflict(message string) *APIError {
	return New("CONFLICT", message, http.StatusConflict)
}

// NotFound returns a NOT_FOUND with a caller-facing message.
func NotFound(message string) *APIError {
	return New("NOT_FOUND", message, http.StatusNotFound)
}

// Wrap converts any error into an APIError, keeping the original message in
// Details. An error that already is an APIError passes through unchanged.
func Wrap(err error, code, message string, status int) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return New(code, message, status, err.Error())
}

// From extracts the APIError from err, falling back to ErrInternal.
func From(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return ErrInternal
}
