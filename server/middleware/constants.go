package middleware

import "context"

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// ForwardedForHeader names the original client when the request was relayed
// over loopback. See ClientIP.
const ForwardedForHeader = "X-Forwarded-For"

// GetRequestID returns the request ID stored by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
