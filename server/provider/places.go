package provider

import (
	"context"
	"net/http"

	"github.com/teilomillet/medtriage/config"
	"googlemaps.github.io/maps"
)

// GooglePlaces searches the Google Places nearby search API.
type GooglePlaces struct {
	client *maps.Client
}

// NewGooglePlaces builds the maps client once.
func NewGooglePlaces(cfg config.PlacesConfig) (*GooglePlaces, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	opts := []maps.ClientOption{
		maps.WithAPIKey(cfg.APIKey),
		// maps wraps the transport of the client it is given
		maps.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, maps.WithRateLimit(cfg.RequestsPerSecond))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return &GooglePlaces{client: client}, nil
}

// SearchNearby implements PlacesSearcher. A ZERO_RESULTS answer is an empty
// slice, not an error.
func (g *GooglePlaces) SearchNearby(ctx context.Context, q NearbyQuery) ([]Place, error) {
	resp, err := g.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: q.Latitude, Lng: q.Longitude},
		Radius:   q.Radius,
		Type:     maps.PlaceType(q.Category),
	})
	if err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		place := Place{Name: r.Name, Vicinity: r.Vicinity}
		// maps decodes a missing geometry as the zero LatLng
		if loc := r.Geometry.Location; loc != (maps.LatLng{}) {
			lat, lng := loc.Lat, loc.Lng
			place.Latitude, place.Longitude = &lat, &lng
		}
		places = append(places, place)
	}
	return places, nil
}
