package errors

import (
	"net/http"
)

// NewError creates a new ServiceError. The constructors below fix the type
// and status code for each kind of failure.
func NewError(errType ErrorType, message string, code int, requestID string, err error) *ServiceError {
	return &ServiceError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
		err:       err,
	}
}

// NewValidationError creates a 400 error for missing or malformed input,
// such as empty symptoms or an absent coordinate.
//
// Example:
//
//	err := NewValidationError("req_123", "Symptoms and age are required")
func NewValidationError(requestID, message string) *ServiceError {
	return NewError(ValidationError, message, http.StatusBadRequest, requestID, nil)
}

// NewNotFoundError creates a 404 error.
//
// Example:
//
//	err := NewNotFoundError("req_123", "No hospitals found nearby")
func NewNotFoundError(requestID, message string) *ServiceError {
	return NewError(NotFoundError, message, http.StatusNotFound, requestID, nil)
}

// NewUpstreamError creates a 500 error for a failed external call. The
// client sees the upstream error text; err is kept for logging and unwrapping.
//
// Example:
//
//	err := NewUpstreamError("req_123", placesErr)
func NewUpstreamError(requestID string, err error) *ServiceError {
	message := "upstream service failed"
	if err != nil {
		message = err.Error()
	}
	return NewError(UpstreamError, message, http.StatusInternalServerError, requestID, err)
}

// NewInternalError creates an internal server error for failures that are
// not attributable to the client or to an upstream service:
//   - Panics
//   - Response encoding failures
//   - Template rendering failures
func NewInternalError(requestID string, err error) *ServiceError {
	return NewError(InternalError, "Internal server error", http.StatusInternalServerError, requestID, err)
}

// NewRateLimitError creates a 429 error for clients over their allowance.
func NewRateLimitError(requestID string) *ServiceError {
	return NewError(RateLimitError, "Rate limit exceeded", http.StatusTooManyRequests, requestID, nil)
}

// NewUnavailableError creates a 503 error used when the service sheds load.
func NewUnavailableError(requestID, message string) *ServiceError {
	return NewError(UnavailableError, message, http.StatusServiceUnavailable, requestID, nil)
}

// NewMethodNotAllowedError creates a 405 error.
func NewMethodNotAllowedError(requestID string) *ServiceError {
	return NewError(MethodNotAllowedError, "Method not allowed", http.StatusMethodNotAllowed, requestID, nil)
}
