package domain

import (
	"fmt"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput     = "INVALID_INPUT"
	ErrBackendFailure   = "BACKEND_FAILURE"
	ErrExternalAPI      = "EXTERNAL_API_ERROR"
	ErrDrugInfoNotFound = "DRUG_INFO_NOT_FOUND"
	ErrRateLimit        = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrValidation       = "VALIDATION_ERROR"
)

// ValidationError represents a precondition failure on a request field.
// It is fatal to the current submission and carries no retry semantics.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// AllBackendsFailedError is raised when both the enhanced and the
// standard prediction backend attempts were unsuccessful. No
// PredictionResult exists in that case; the caller must resubmit.
type AllBackendsFailedError struct {
	EnhancedErr error
	StandardErr error
}

// Error implements the error interface
func (e *AllBackendsFailedError) Error() string {
	return fmt.Sprintf("all prediction backends failed: enhanced=%v, standard=%v",
		e.EnhancedErr, e.StandardErr)
}

// Unwrap exposes both underlying backend errors
func (e *AllBackendsFailedError) Unwrap() []error {
	return []error{e.EnhancedErr, e.StandardErr}
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}
