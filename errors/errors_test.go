package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ServiceError
		want string
	}{
		{
			name: "basic error without wrapped error",
			err: &ServiceError{
				Type:    ValidationError,
				Message: "Symptoms and age are required",
			},
			want: "validation_error: Symptoms and age are required",
		},
		{
			name: "error with wrapped error",
			err: &ServiceError{
				Type:    UpstreamError,
				Message: "places lookup failed",
				err:     errors.New("REQUEST_DENIED"),
			},
			want: "upstream_error: places lookup failed: REQUEST_DENIED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ServiceError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServiceError_Is(t *testing.T) {
	err1 := &ServiceError{Type: NotFoundError, Message: "test1"}
	err2 := &ServiceError{Type: NotFoundError, Message: "test2"}
	err3 := &ServiceError{Type: ValidationError, Message: "test3"}

	if !errors.Is(err1, err2) {
		t.Error("Expected errors.Is(err1, err2) to be true for same error type")
	}
	if errors.Is(err1, err3) {
		t.Error("Expected errors.Is(err1, err3) to be false for different error types")
	}
	if err1.Is(errors.New("plain")) {
		t.Error("Expected a plain error never to match")
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	inner := errors.New("inner error")
	err := NewUpstreamError("req", inner)

	if unwrapped := err.Unwrap(); unwrapped != inner {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, inner)
	}
	if !errors.Is(err, inner) {
		t.Error("Expected errors.Is to reach the wrapped error")
	}
}

func TestWriteError_BodyHasOnlyErrorField(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, NewNotFoundError("req-42", "No hospitals found nearby"))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if id := rr.Header().Get("X-Request-ID"); id != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", id)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body) != 1 {
		t.Errorf("body has %d fields, want exactly 1: %v", len(body), body)
	}
	if body["error"] != "No hospitals found nearby" {
		t.Errorf("error = %v, want %q", body["error"], "No hospitals found nearby")
	}
}
