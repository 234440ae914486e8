package processing

import (
	"context"
	"errors"

	"github.com/teilomillet/medtriage/server/provider"
)

// Hospital lookup parameters.
const (
	SearchRadiusMeters = 5000
	HospitalCategory   = "hospital"
	MaxHospitals       = 10

	DefaultHospitalName    = "No name available"
	DefaultHospitalAddress = "No address available"
)

// ErrNoHospitals is returned when the upstream search finds nothing.
var ErrNoHospitals = errors.New("No hospitals found nearby")

// HospitalLocator finds hospitals around a point.
type HospitalLocator struct {
	places provider.PlacesSearcher
	limit  int
}

// NewHospitalLocator creates a locator returning at most MaxHospitals entries.
func NewHospitalLocator(places provider.PlacesSearcher) *HospitalLocator {
	return &HospitalLocator{places: places, limit: MaxHospitals}
}

// Nearest searches within SearchRadiusMeters and keeps the first results in
// upstream order. Missing names and addresses get placeholder text; missing
// coordinates stay nil.
func (l *HospitalLocator) Nearest(ctx context.Context, latitude, longitude float64) ([]Hospital, error) {
	places, err := l.places.SearchNearby(ctx, provider.NearbyQuery{
		Latitude:  latitude,
		Longitude: longitude,
		Radius:    SearchRadiusMeters,
		Category:  HospitalCategory,
	})
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, ErrNoHospitals
	}

	if len(places) > l.limit {
		places = places[:l.limit]
	}
	hospitals := make([]Hospital, 0, len(places))
	for _, p := range places {
		h := Hospital{
			Name:      p.Name,
			Address:   p.Vicinity,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		}
		if h.Name == "" {
			h.Name = DefaultHospitalName
		}
		if h.Address == "" {
			h.Address = DefaultHospitalAddress
		}
		hospitals = append(hospitals, h)
	}
	return hospitals, nil
}
