// Package params reads request parameters from the places a route is
// configured to accept them. One parser serves both the query string and
// the JSON body variants of the hospital lookup.
package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/teilomillet/medtriage/server/validation"
)

// Source names a location in the request that parameters are read from.
type Source string

const (
	// SourceQuery reads URL query parameters
	SourceQuery Source = "query"
	// SourceJSON reads top-level fields of a JSON object body
	SourceJSON Source = "json"
)

// maxBodyBytes bounds how much of a JSON body is read.
const maxBodyBytes = 1 << 20

var (
	// ErrMissingCoordinates is returned when either coordinate is absent or unparsable
	ErrMissingCoordinates = errors.New("Latitude and longitude are required")

	// ErrCoordinatesOutOfRange is returned for coordinates outside the valid ranges
	ErrCoordinatesOutOfRange = errors.New("Latitude must be between -90 and 90 and longitude between -180 and 180")
)

// ParseSources converts configured source names.
func ParseSources(names []string) ([]Source, error) {
	sources := make([]Source, 0, len(names))
	for _, n := range names {
		switch s := Source(strings.ToLower(strings.TrimSpace(n))); s {
		case SourceQuery, SourceJSON:
			sources = append(sources, s)
		default:
			return nil, fmt.Errorf("unknown parameter source %q", n)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no parameter sources")
	}
	return sources, nil
}

// Coordinates is a point as read from a request. A nil field was not
// supplied by any source.
type Coordinates struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// CoordinateParser reads latitude and longitude from the configured sources.
// Sources are tried in order and the first one that yields a value wins,
// independently for each field.
type CoordinateParser struct {
	sources []Source
}

// NewCoordinateParser creates a parser over sources.
func NewCoordinateParser(sources ...Source) *CoordinateParser {
	return &CoordinateParser{sources: sources}
}

// Parse returns the coordinates of r, or ErrMissingCoordinates or
// ErrCoordinatesOutOfRange. Zero is a valid coordinate.
func (p *CoordinateParser) Parse(r *http.Request) (latitude, longitude float64, err error) {
	var c Coordinates
	for _, src := range p.sources {
		if c.Latitude != nil && c.Longitude != nil {
			break
		}
		var lat, lng *float64
		switch src {
		case SourceQuery:
			lat, lng = fromQuery(r)
		case SourceJSON:
			lat, lng = fromJSON(r)
		}
		if c.Latitude == nil {
			c.Latitude = lat
		}
		if c.Longitude == nil {
			c.Longitude = lng
		}
	}

	if err := validation.Struct(c); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) && !verrs.HasTag("required") {
			return 0, 0, ErrCoordinatesOutOfRange
		}
		return 0, 0, ErrMissingCoordinates
	}
	return *c.Latitude, *c.Longitude, nil
}

func fromQuery(r *http.Request) (lat, lng *float64) {
	q := r.URL.Query()
	return parseFloat(q.Get("latitude")), parseFloat(q.Get("longitude"))
}

// fromJSON reads the body and restores it so later sources and handlers can
// read it again. A body that is not a JSON object yields nothing.
func fromJSON(r *http.Request) (lat, lng *float64) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}

	var body struct {
		Latitude  json.RawMessage `json:"latitude"`
		Longitude json.RawMessage `json:"longitude"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, nil
	}
	return jsonFloat(body.Latitude), jsonFloat(body.Longitude)
}

// jsonFloat accepts a JSON number or a string holding one.
func jsonFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseFloat(s)
	}
	return nil
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
