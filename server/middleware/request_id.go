// Package middleware provides the HTTP middleware chain of the medtriage
// server: request IDs, access logging, panic recovery, CORS, Prometheus
// metrics, per-client rate limiting and the admission queue.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// maxRequestIDLen bounds client supplied IDs before they reach the logs.
const maxRequestIDLen = 128

// RequestID middleware adds a unique request ID to the context
// and sets it in the response header. A client supplied X-Request-ID is
// reused so calls can be correlated across services.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.New().String()
		}
		r.Header.Set(RequestIDHeader, requestID)

		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
