// Package apierror defines the error taxonomy surfaced by the service:
// authentication, authorization, validation, not-found, provider and internal
// failures. Callers outside the owner's trust boundary never see provider or
// internal diagnostics, only the stable code and message.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Type classifies an error into the service's taxonomy
type Type string

const (
	TypeValidation   Type = "validation"
	TypeNotFound     Type = "not_found"
	TypeUnauthorized Type = "unauthorized"
	TypeForbidden    Type = "forbidden"
	TypeInternal     Type = "internal"
)

// Error is a structured, caller-visible API error
type Error struct {
	Type    Type   `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for the error type
func (e *Error) StatusCode() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes the error as JSON to the response writer
func (e *Error) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode())
	json.NewEncoder(w).Encode(map[string]*Error{"error": e})
}

// NewValidationError creates a validation error
func NewValidationError(format string, args ...any) *Error {
	return &Error{
		Type:    TypeValidation,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf(format, args...),
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *Error {
	return &Error{
		Type:    TypeNotFound,
		Code:    "RESOURCE_NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *Error {
	if message == "" {
		message = "authentication required"
	}
	return &Error{
		Type:    TypeUnauthorized,
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *Error {
	if message == "" {
		message = "access denied"
	}
	return &Error{
		Type:    TypeForbidden,
		Code:    "FORBIDDEN",
		Message: message,
	}
}

// NewNotActiveError marks a state transition attempt against a build that is
// already terminal.
func NewNotActiveError() *Error {
	return &Error{
		Type:    TypeForbidden,
		Code:    "BUILD_NOT_ACTIVE",
		Message: "build is not active",
	}
}

// NewInternalError creates an internal server error. The underlying cause is
// intentionally not carried here; log it at the call site.
func NewInternalError() *Error {
	return &Error{
		Type:    TypeInternal,
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}
}

// HandleError writes err to w, collapsing anything that is not an *Error into
// a generic internal error.
func HandleError(w http.ResponseWriter, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		apiErr.WriteJSON(w)
		return
	}
	NewInternalError().WriteJSON(w)
}
