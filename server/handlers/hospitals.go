package handlers

import (
	"errors"
	"net/http"

	serrors "github.com/teilomillet/medtriage/errors"
	"github.com/teilomillet/medtriage/server/params"
	"github.com/teilomillet/medtriage/server/processing"
	"go.uber.org/zap"
)

// HospitalsHandler serves the hospital lookup routes. The parser decides
// where coordinates come from, so one handler backs both the query string
// and the JSON body routes.
type HospitalsHandler struct {
	locator *processing.HospitalLocator
	parser  *params.CoordinateParser
	logger  *zap.Logger
}

// NewHospitalsHandler creates a hospital lookup handler.
func NewHospitalsHandler(locator *processing.HospitalLocator, parser *params.CoordinateParser, logger *zap.Logger) *HospitalsHandler {
	return &HospitalsHandler{locator: locator, parser: parser, logger: logger}
}

func (h *HospitalsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger, requestID := requestLogger(h.logger, r)

	latitude, longitude, err := h.parser.Parse(r)
	if err != nil {
		fail(w, logger, serrors.NewValidationError(requestID, err.Error()))
		return
	}

	hospitals, err := h.locator.Nearest(r.Context(), latitude, longitude)
	switch {
	case errors.Is(err, processing.ErrNoHospitals):
		fail(w, logger, serrors.NewNotFoundError(requestID, err.Error()))
		return
	case err != nil:
		fail(w, logger, serrors.NewUpstreamError(requestID, err))
		return
	}

	logger.Debug("Hospitals found", zap.Int("count", len(hospitals)))
	writeJSON(w, logger, http.StatusOK, processing.HospitalsResponse{Hospitals: hospitals})
}
