// Package handlers provides the HTTP handlers of the medtriage server.
//
// Every handler follows the same shape:
//  1. Per-request child logger carrying the request ID
//  2. Input parsing and validation, answered with 400 before any upstream call
//  3. One upstream call through the processing package
//  4. JSON response, or a ServiceError written by the errors package
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/teilomillet/medtriage/errors"
	"github.com/teilomillet/medtriage/server/middleware"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// requestLogger returns a logger annotated with the request context. A nil
// logger means errors.DefaultLogger.
func requestLogger(logger *zap.Logger, r *http.Request) (*zap.Logger, string) {
	if logger == nil {
		logger = errors.DefaultLogger
	}
	requestID := middleware.GetRequestID(r.Context())
	return logger.With(
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	), requestID
}

// writeJSON writes v with the given status. Encoding failures can only be
// logged since the status line is already out.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// fail logs err and writes it.
func fail(w http.ResponseWriter, logger *zap.Logger, err *errors.ServiceError) {
	errors.LogError(logger, err, err.RequestID)
	errors.WriteError(w, err)
}
