package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/teilomillet/medtriage/errors"
	"github.com/teilomillet/medtriage/server/processing"
	"github.com/teilomillet/medtriage/server/validation"
	"go.uber.org/zap"
)

// Triage error messages returned to clients.
const (
	MsgInvalidBody      = "Invalid request body"
	MsgTriageIncomplete = "Symptoms and age are required"
)

// TriageHandler serves POST /triage.
type TriageHandler struct {
	triager *processing.Triager
	logger  *zap.Logger
}

// NewTriageHandler creates a triage handler.
func NewTriageHandler(triager *processing.Triager, logger *zap.Logger) *TriageHandler {
	return &TriageHandler{triager: triager, logger: logger}
}

// ServeHTTP decodes {symptoms, age, history}, asks the model for a priority
// and returns {"triage_result": ...}. The model is never called for an
// incomplete request.
func (h *TriageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger, requestID := requestLogger(h.logger, r)

	var req processing.TriageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		logger.Debug("Undecodable triage body", zap.Error(err))
		fail(w, logger, errors.NewValidationError(requestID, MsgInvalidBody))
		return
	}

	req.Normalize()
	if err := validation.Struct(req); err != nil {
		fail(w, logger, errors.NewValidationError(requestID, MsgTriageIncomplete))
		return
	}

	logger.Debug("Requesting triage",
		zap.Int("symptoms_length", len(req.Symptoms)),
		zap.Bool("has_history", req.History != ""),
	)

	result, err := h.triager.Triage(r.Context(), req)
	if err != nil {
		fail(w, logger, errors.NewUpstreamError(requestID, err))
		return
	}

	writeJSON(w, logger, http.StatusOK, processing.TriageResponse{TriageResult: result})
}
