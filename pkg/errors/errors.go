// Package errors provides structured error types for diagrammer.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, HTTP API and MCP tools
//   - Machine-readable error codes for programmatic handling
//   - User-friendly notification messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The generation pipeline reports MISSING_CREDENTIAL, EMPTY_INPUT,
// SERVICE_ERROR and MALFORMED_RESPONSE. The rendering pipeline reports
// ENGINE_LOAD_FAILED and INVALID_SYNTAX. The remaining codes are generic.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptyInput, "prompt is empty")
//	if errors.Is(err, errors.ErrCodeEmptyInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeEngineLoadFailed, origErr, "load %s engine", name)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Generation errors
	ErrCodeMissingCredential Code = "MISSING_CREDENTIAL"
	ErrCodeEmptyInput        Code = "EMPTY_INPUT"
	ErrCodeServiceError      Code = "SERVICE_ERROR"
	ErrCodeMalformedResponse Code = "MALFORMED_RESPONSE"

	// Rendering errors
	ErrCodeEngineLoadFailed Code = "ENGINE_LOAD_FAILED"
	ErrCodeInvalidSyntax    Code = "INVALID_SYNTAX"

	// Generic errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
	ErrCodeUnsupported  Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Title returns the short notification title for an error, matching the
// condition it names (e.g. "API Key Missing").
func Title(err error) string {
	switch GetCode(err) {
	case ErrCodeMissingCredential:
		return "API Key Missing"
	case ErrCodeEmptyInput:
		return "Empty Prompt"
	case ErrCodeServiceError, ErrCodeMalformedResponse:
		return "Generation Failed"
	case ErrCodeEngineLoadFailed:
		return "Renderer Unavailable"
	case ErrCodeInvalidSyntax:
		return "Invalid Diagram"
	default:
		return "Error"
	}
}

// ServiceError reports a non-success HTTP status from the completion service.
type ServiceError struct {
	Status int
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("completion service returned status %d", e.Status)
}

// NewServiceError builds a SERVICE_ERROR carrying status.
func NewServiceError(status int) *Error {
	return Wrap(ErrCodeServiceError, &ServiceError{Status: status},
		"API request failed with status %d", status)
}

// Status extracts the HTTP status from a SERVICE_ERROR chain.
// Returns 0 if err carries no service status.
func Status(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// HTTPStatus maps an error code to the status an API should respond with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeMissingCredential, ErrCodeEmptyInput, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeServiceError, ErrCodeMalformedResponse, ErrCodeNetwork:
		return http.StatusBadGateway
	case ErrCodeEngineLoadFailed:
		return http.StatusServiceUnavailable
	case ErrCodeInvalidSyntax:
		return http.StatusUnprocessableEntity
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
