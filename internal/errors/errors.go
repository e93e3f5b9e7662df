package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

// ValidationError creates a VALIDATION_ERROR
func ValidationError(field, message string) *APIError {
	return &APIError{
		Code:    ErrValidation,
		Message: message,
		Field:   field,
		Status:  http.StatusUnprocessableEntity,
	}
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return &APIError{
		Code:    ErrBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return &APIError{
		Code:    ErrInternalError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// InvalidFeedback creates an INVALID_FEEDBACK_EVENT error.
// Raised at the submitFeedback boundary; never silently dropped.
func InvalidFeedback(field, message string) *APIError {
	return &APIError{
		Code:    ErrBadFeedback,
		Message: message,
		Field:   field,
		Status:  http.StatusUnprocessableEntity,
	}
}

// UpstreamUnavailable creates an UPSTREAM_UNAVAILABLE error.
// Callers catch this per-call and degrade to cached or fallback data.
func UpstreamUnavailable(source string, err error) *APIError {
	e := &APIError{
		Code:    ErrUpstream,
		Message: fmt.Sprintf("%s is temporarily unavailable", source),
		Status:  http.StatusServiceUnavailable,
	}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// ColdStart marks a no-history condition. Not a failure: it signals the
// caller to fall back to trending fill and a neutral profile.
func ColdStart(userID string) *APIError {
	return &APIError{
		Code:    ErrColdStart,
		Message: fmt.Sprintf("no listening history for user %s", userID),
		Status:  http.StatusOK,
	}
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// IsColdStart reports whether err is a cold-start condition.
func IsColdStart(err error) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == ErrColdStart
	}
	return false
}

// IsUpstreamUnavailable reports whether err marks a failed collaborator call.
func IsUpstreamUnavailable(err error) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == ErrUpstream
	}
	return false
}
