package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	upstream := errors.New("Post \"https://api.mistral.ai/v1/chat/completions\": dial tcp: connection refused")

	tests := []struct {
		name     string
		err      *ServiceError
		wantType ErrorType
		wantCode int
		wantMsg  string
	}{
		{
			name:     "validation",
			err:      NewValidationError("r1", "Symptoms and age are required"),
			wantType: ValidationError,
			wantCode: http.StatusBadRequest,
			wantMsg:  "Symptoms and age are required",
		},
		{
			name:     "not found",
			err:      NewNotFoundError("r2", "No hospitals found nearby"),
			wantType: NotFoundError,
			wantCode: http.StatusNotFound,
			wantMsg:  "No hospitals found nearby",
		},
		{
			name:     "upstream carries the upstream text",
			err:      NewUpstreamError("r3", upstream),
			wantType: UpstreamError,
			wantCode: http.StatusInternalServerError,
			wantMsg:  upstream.Error(),
		},
		{
			name:     "upstream without cause",
			err:      NewUpstreamError("r4", nil),
			wantType: UpstreamError,
			wantCode: http.StatusInternalServerError,
			wantMsg:  "upstream service failed",
		},
		{
			name:     "internal",
			err:      NewInternalError("r5", errors.New("template: boom")),
			wantType: InternalError,
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Internal server error",
		},
		{
			name:     "rate limit",
			err:      NewRateLimitError("r6"),
			wantType: RateLimitError,
			wantCode: http.StatusTooManyRequests,
			wantMsg:  "Rate limit exceeded",
		},
		{
			name:     "unavailable",
			err:      NewUnavailableError("r7", "Server is at capacity"),
			wantType: UnavailableError,
			wantCode: http.StatusServiceUnavailable,
			wantMsg:  "Server is at capacity",
		},
		{
			name:     "method not allowed",
			err:      NewMethodNotAllowedError("r8"),
			wantType: MethodNotAllowedError,
			wantCode: http.StatusMethodNotAllowed,
			wantMsg:  "Method not allowed",
		},
		{
			name:     "generic",
			err:      NewError(InternalError, "custom", 418, "r9", nil),
			wantType: InternalError,
			wantCode: 418,
			wantMsg:  "custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", tt.err.Type, tt.wantType)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.wantCode)
			}
			if tt.err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.wantMsg)
			}
			if tt.err.RequestID == "" {
				t.Error("RequestID should be set")
			}
		})
	}
}
