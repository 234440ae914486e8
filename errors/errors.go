// Package errors provides the error handling system for the medtriage service.
// It includes typed service errors, the uniform JSON error body, request ID
// correlation, and integrated logging with Uber's zap logger.
//
// Every error that reaches a client is rendered as a single-field JSON
// object:
//
//	{"error": "Symptoms and age are required"}
//
// The error type and the request ID never appear in the body. They travel in
// the logs and in the X-Request-ID response header instead.
//
// Handlers build errors with the constructors in types.go and write them
// with WriteError:
//
//	errors.WriteError(w, errors.NewNotFoundError(requestID, "No hospitals found nearby"))
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// DefaultLogger is used by LogError and the handlers when they are given no
// logger. It starts as a production logger; SetLogger installs the process
// logger.
var DefaultLogger *zap.Logger

func init() {
	var err error
	DefaultLogger, err = zap.NewProduction()
	if err != nil {
		DefaultLogger = zap.NewNop()
	}
}

// SetLogger allows setting a custom zap logger instance.
// A nil logger is ignored.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		DefaultLogger = logger
	}
}

// ErrorType represents the category of a failure. Each category maps to
// one HTTP status code through the constructors in types.go.
type ErrorType string

const (
	// ValidationError represents a missing or malformed request field
	ValidationError ErrorType = "validation_error"

	// NotFoundError represents an empty upstream result set or an unknown route
	NotFoundError ErrorType = "not_found"

	// UpstreamError represents any failure of an external service call,
	// including transport errors, auth errors and malformed responses
	UpstreamError ErrorType = "upstream_error"

	// InternalError represents unexpected internal server errors
	InternalError ErrorType = "internal_error"

	// RateLimitError represents a client exceeding its request allowance
	RateLimitError ErrorType = "rate_limit_error"

	// UnavailableError represents the service refusing work, e.g. a full queue
	UnavailableError ErrorType = "unavailable"

	// MethodNotAllowedError represents a request with an unsupported HTTP method
	MethodNotAllowedError ErrorType = "method_not_allowed"
)

// ServiceError is the error type carried from handlers to the HTTP boundary.
// Only Message is exposed to clients; the remaining fields are for logging
// and status selection.
type ServiceError struct {
	// Type categorizes the error
	Type ErrorType

	// Message is the human-readable description returned to the client
	Message string

	// Code is the HTTP status code
	Code int

	// RequestID links the error to a specific request
	RequestID string

	// err is the underlying error
	err error
}

// Error implements the error interface. It combines the error type, the
// message and the underlying error (if any).
func (e *ServiceError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.err
}

// Is matches on error type only, so errors.Is(err, &ServiceError{Type: NotFoundError})
// holds for every not-found error regardless of message.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// MarshalJSON renders the uniform client-facing body.
func (e *ServiceError) MarshalJSON() ([]byte, error) {
	return json.Marshal(ErrorResponse{Error: e.Message})
}

// WriteError writes err as JSON with its status code. The request ID, when
// known, is echoed in the X-Request-ID header.
func WriteError(w http.ResponseWriter, err *ServiceError) {
	if err.RequestID != "" && w.Header().Get("X-Request-ID") == "" {
		w.Header().Set("X-Request-ID", err.RequestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
}
