package domain

import (
	"fmt"
	"strings"
	"time"
)

// APIError represents a standardized error response for the HTTP and MCP surfaces
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
	ErrInvalidSelection = "INVALID_SELECTION"
	ErrValidation       = "VALIDATION_ERROR"
	ErrDatabaseError    = "DATABASE_ERROR"
	ErrRateLimit        = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer   = "INTERNAL_SERVER_ERROR"
)

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

// FieldError describes one covariate outside its clinically valid bounds.
type FieldError struct {
	Field string  `json:"field"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// String renders the field error for messages.
func (f FieldError) String() string {
	return fmt.Sprintf("%s=%g outside [%g, %g]", f.Field, f.Value, f.Min, f.Max)
}

// IncompleteInputError reports required covariates that were not supplied.
// It is an expected state while a form is being filled in, not a fault.
type IncompleteInputError struct {
	Fields []string `json:"fields"`
}

// Error implements the error interface
func (e *IncompleteInputError) Error() string {
	return fmt.Sprintf("incomplete patient data: missing %s", strings.Join(e.Fields, ", "))
}

// OutOfRangeError reports covariates outside clinically valid bounds.
type OutOfRangeError struct {
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface
func (e *OutOfRangeError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("covariates out of range: %s", strings.Join(parts, "; "))
}

// FieldNames returns the names of the offending fields.
func (e *OutOfRangeError) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return names
}

// InvalidSelectionError reports a therapy selection that references unknown classes or
// combines mutually exclusive ones.
type InvalidSelectionError struct {
	Reason error    `json:"-"`
	IDs    []string `json:"ids"`
}

// Error implements the error interface
func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid therapy selection: %v: %s", e.Reason, strings.Join(e.IDs, ", "))
}

// Unwrap exposes the sentinel reason for errors.Is.
func (e *InvalidSelectionError) Unwrap() error {
	return e.Reason
}

// InvalidInputError reports a malformed engine argument such as a non-positive LDL-C.
type InvalidInputError struct {
	Field   string  `json:"field"`
	Message string  `json:"message"`
	Value   float64 `json:"value"`
	Reason  error   `json:"-"`
}

// Error implements the error interface
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for field '%s': %s", e.Field, e.Message)
}

// Unwrap exposes the sentinel reason for errors.Is.
func (e *InvalidInputError) Unwrap() error {
	return e.Reason
}

// NewInvalidSelectionError creates a new InvalidSelectionError
func NewInvalidSelectionError(reason error, ids ...string) *InvalidSelectionError {
	return &InvalidSelectionError{Reason: reason, IDs: ids}
}

// NewInvalidInputError creates a new InvalidInputError
func NewInvalidInputError(field, message string, value float64, reason error) *InvalidInputError {
	return &InvalidInputError{
		Field:   field,
		Message: message,
		Value:   value,
		Reason:  reason,
	}
}
