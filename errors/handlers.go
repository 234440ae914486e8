package errors

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// LogError logs an error with its context. ServiceErrors are logged with
// their type and status; anything else is logged as unexpected. A nil
// logger means DefaultLogger.
func LogError(logger *zap.Logger, err error, requestID string) {
	if logger == nil {
		logger = DefaultLogger
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		fields := []zap.Field{
			zap.String("error_type", string(svcErr.Type)),
			zap.String("message", svcErr.Message),
			zap.Int("code", svcErr.Code),
			zap.String("request_id", requestID),
		}
		if cause := svcErr.Unwrap(); cause != nil {
			fields = append(fields, zap.NamedError("cause", cause))
		}
		if svcErr.Code >= http.StatusInternalServerError {
			logger.Error("request error", fields...)
		} else {
			logger.Info("request rejected", fields...)
		}
		return
	}
	logger.Error("unexpected error",
		zap.Error(err),
		zap.String("request_id", requestID),
	)
}
