// Package errors provides standardized error handling for the studio workflows.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Validation errors are detected locally, before any network call.
const (
	ErrCodeFileTooLarge        ErrorCode = "FILE_TOO_LARGE"
	ErrCodeUnsupportedType     ErrorCode = "UNSUPPORTED_TYPE"
	ErrCodeEmptyInput          ErrorCode = "EMPTY_INPUT"
	ErrCodeMalformedURL        ErrorCode = "MALFORMED_URL"
	ErrCodeMissingPrecondition ErrorCode = "MISSING_PRECONDITION"
)

// Request lifecycle errors.
const (
	ErrCodeControllerBusy ErrorCode = "CONTROLLER_BUSY"
)

// Backend / transport errors.
const (
	ErrCodeBackendDeclaredFailure ErrorCode = "BACKEND_DECLARED_FAILURE"
	ErrCodeTransportFault         ErrorCode = "TRANSPORT_FAULT"
	ErrCodeTimeout                ErrorCode = "TIMEOUT"
)

// StudioError represents a structured application error.
type StudioError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StudioError) Error() string {
	return fmt.Sprintf("StudioError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewFileTooLargeError creates a non-retryable upload size error.
func NewFileTooLargeError(name string, size, maxBytes int64) *StudioError {
	return &StudioError{
		Code:      ErrCodeFileTooLarge,
		Message:   "Uploaded file exceeds the size limit",
		Details:   fmt.Sprintf("file: %s, size: %d, maxBytes: %d", name, size, maxBytes),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedTypeError creates a non-retryable file type error.
func NewUnsupportedTypeError(name, extension string) *StudioError {
	return &StudioError{
		Code:      ErrCodeUnsupportedType,
		Message:   "Uploaded file type is not accepted",
		Details:   fmt.Sprintf("file: %s, extension: %s", name, extension),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyInputError creates a non-retryable empty input error.
func NewEmptyInputError(field string) *StudioError {
	return &StudioError{
		Code:      ErrCodeEmptyInput,
		Message:   "Required input is empty",
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedURLError creates a non-retryable URL shape error.
func NewMalformedURLError(raw string) *StudioError {
	return &StudioError{
		Code:      ErrCodeMalformedURL,
		Message:   "URL does not match a recognized video link",
		Details:   fmt.Sprintf("url: %s", raw),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingPreconditionError creates a non-retryable precondition error.
func NewMissingPreconditionError(details string) *StudioError {
	return &StudioError{
		Code:      ErrCodeMissingPrecondition,
		Message:   "A required prior step has not completed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewControllerBusyError creates an error for a submission while one is in flight.
func NewControllerBusyError(workflow string) *StudioError {
	return &StudioError{
		Code:      ErrCodeControllerBusy,
		Message:   "A request is already in flight for this workflow",
		Details:   fmt.Sprintf("workflow: %s", workflow),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendDeclaredFailureError creates an error for a well-formed non-success response.
func NewBackendDeclaredFailureError(operation, details string) *StudioError {
	return &StudioError{
		Code:      ErrCodeBackendDeclaredFailure,
		Message:   fmt.Sprintf("Backend reported failure for %s", operation),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportFaultError creates a retryable connectivity error.
func NewTransportFaultError(operation string, err error) *StudioError {
	return &StudioError{
		Code:      ErrCodeTransportFault,
		Message:   fmt.Sprintf("Could not reach the backend for %s", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(operation string) *StudioError {
	return &StudioError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Request for %s timed out", operation),
		Details:   "call exceeded the configured transport timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStudio coerces any error into a StudioError, treating unannotated
// errors as transport faults.
func AsStudio(err error) *StudioError {
	var se *StudioError
	if errors.As(err, &se) {
		return se
	}
	return &StudioError{
		Code:      ErrCodeTransportFault,
		Message:   "Unexpected transport error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the ErrorCode from err, or empty when err is not a StudioError.
func CodeOf(err error) ErrorCode {
	var se *StudioError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsValidation reports whether the error was detected locally before dispatch.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case ErrCodeFileTooLarge, ErrCodeUnsupportedType, ErrCodeEmptyInput,
		ErrCodeMalformedURL, ErrCodeMissingPrecondition:
		return true
	}
	return false
}

// IsTransport reports whether the error came from the network layer.
func IsTransport(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeTransportFault || code == ErrCodeTimeout
}

// IsBackendDeclared reports whether the backend answered but declared failure.
func IsBackendDeclared(err error) bool {
	return CodeOf(err) == ErrCodeBackendDeclaredFailure
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "FILE") || strings.Contains(codeStr, "EMPTY") ||
		strings.Contains(codeStr, "URL") || strings.Contains(codeStr, "PRECONDITION") ||
		strings.Contains(codeStr, "UNSUPPORTED"):
		return "VALIDATION"
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "TIMEOUT"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "BACKEND"):
		return "BACKEND"
	case strings.Contains(codeStr, "BUSY"):
		return "LIFECYCLE"
	default:
		return "OTHER"
	}
}
