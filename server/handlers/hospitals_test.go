package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	serrors "github.com/teilomillet/medtriage/errors"
	"github.com/teilomillet/medtriage/server/mocks"
	"github.com/teilomillet/medtriage/server/params"
	"github.com/teilomillet/medtriage/server/processing"
	"github.com/teilomillet/medtriage/server/provider"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newHospitalsHandler(t *testing.T, places *mocks.MockPlaces, sources ...params.Source) http.Handler {
	t.Helper()
	return NewHospitalsHandler(
		processing.NewHospitalLocator(places),
		params.NewCoordinateParser(sources...),
		zaptest.NewLogger(t),
	)
}

func manyPlaces(n int) []provider.Place {
	places := make([]provider.Place, n)
	for i := range places {
		places[i] = provider.Place{
			Name:      fmt.Sprintf("Hospital %d", i),
			Vicinity:  fmt.Sprintf("%d Main St", i),
			Latitude:  mocks.Coord(40 + float64(i)/100),
			Longitude: mocks.Coord(-74),
		}
	}
	return places
}

func TestHospitalsHandlerQuery(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		places         []provider.Place
		placesErr      error
		expectedStatus int
		expectedBody   string
		expectCall     bool
	}{
		{
			name:  "success with defaults",
			query: "latitude=40.7128&longitude=-74.0060",
			places: []provider.Place{
				{Name: "General", Vicinity: "1 First Ave", Latitude: mocks.Coord(40.71), Longitude: mocks.Coord(-74.01)},
				{},
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"hospitals": [
				{"name": "General", "address": "1 First Ave", "latitude": 40.71, "longitude": -74.01},
				{"name": "No name available", "address": "No address available", "latitude": null, "longitude": null}
			]}`,
			expectCall: true,
		},
		{
			name:           "missing longitude",
			query:          "latitude=40.7",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error": "Latitude and longitude are required"}`,
		},
		{
			name:           "out of range",
			query:          "latitude=95&longitude=0",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error": "Latitude must be between -90 and 90 and longitude between -180 and 180"}`,
		},
		{
			name:           "no results",
			query:          "latitude=0&longitude=0",
			places:         nil,
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error": "No hospitals found nearby"}`,
			expectCall:     true,
		},
		{
			name:           "upstream failure",
			query:          "latitude=1&longitude=1",
			placesErr:      fmt.Errorf("maps: REQUEST_DENIED - The provided API key is invalid."),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error": "maps: REQUEST_DENIED - The provided API key is invalid."}`,
			expectCall:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			places := mocks.NewMockPlaces(func(ctx context.Context, q provider.NearbyQuery) ([]provider.Place, error) {
				return tt.places, tt.placesErr
			})
			handler := newHospitalsHandler(t, places, params.SourceQuery)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nearest_hospitals?"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			if tt.expectCall {
				assert.Equal(t, 1, places.Calls())
			} else {
				assert.Equal(t, 0, places.Calls(), "no upstream call for rejected input")
			}
		})
	}
}

func TestHospitalsHandlerJSON(t *testing.T) {
	places := mocks.NewMockPlaces(func(ctx context.Context, q provider.NearbyQuery) ([]provider.Place, error) {
		return manyPlaces(15), nil
	})
	handler := newHospitalsHandler(t, places, params.SourceJSON)

	req := httptest.NewRequest(http.MethodPost, "/nearest-hospitals",
		strings.NewReader(`{"latitude": 48.8566, "longitude": 2.3522}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp processing.HospitalsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Hospitals, processing.MaxHospitals)
	for i, h := range resp.Hospitals {
		assert.Equal(t, fmt.Sprintf("Hospital %d", i), h.Name, "upstream order is preserved")
	}

	q, ok := places.LastQuery()
	require.True(t, ok)
	assert.Equal(t, 48.8566, q.Latitude)
	assert.Equal(t, 2.3522, q.Longitude)
	assert.Equal(t, uint(processing.SearchRadiusMeters), q.Radius)
	assert.Equal(t, processing.HospitalCategory, q.Category)
}

func TestHospitalsHandlerJSONIgnoresQuery(t *testing.T) {
	places := mocks.NewMockPlaces(nil)
	handler := newHospitalsHandler(t, places, params.SourceJSON)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/nearest-hospitals?latitude=1&longitude=2", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error": "Latitude and longitude are required"}`, rr.Body.String())
	assert.Equal(t, 0, places.Calls())
}

func TestHospitalsHandlerNilLoggerUsesDefaultLogger(t *testing.T) {
	previous := serrors.DefaultLogger
	defer func() { serrors.DefaultLogger = previous }()
	core, logs := observer.New(zapcore.InfoLevel)
	serrors.SetLogger(zap.New(core))

	handler := NewHospitalsHandler(
		processing.NewHospitalLocator(mocks.NewMockPlaces(nil)),
		params.NewCoordinateParser(params.SourceQuery),
		nil,
	)
	req := httptest.NewRequest(http.MethodGet, "/nearest_hospitals?latitude=1&longitude=2", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	entries := logs.FilterMessage("request rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "not_found", entries[0].ContextMap()["error_type"])
}
