package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teilomillet/medtriage/config"
	"github.com/teilomillet/medtriage/server/mocks"
	"github.com/teilomillet/medtriage/server/provider"
)

func placesN(n int) []provider.Place {
	out := make([]provider.Place, n)
	for i := range out {
		out[i] = provider.Place{
			Name:      fmt.Sprintf("Hospital %d", i),
			Vicinity:  fmt.Sprintf("%d Main St", i),
			Latitude:  mocks.Coord(float64(i)),
			Longitude: mocks.Coord(float64(-i)),
		}
	}
	return out
}

func TestNearestTruncatesAndPreservesOrder(t *testing.T) {
	for _, n := range []int{1, 9, 10, 11, 20} {
		t.Run(fmt.Sprintf("%d results", n), func(t *testing.T) {
			places := mocks.NewMockPlaces(func(context.Context, provider.NearbyQuery) ([]provider.Place, error) {
				return placesN(n), nil
			})
			hospitals, err := NewHospitalLocator(places).Nearest(context.Background(), 40.7, -74.0)
			require.NoError(t, err)

			want := n
			if want > MaxHospitals {
				want = MaxHospitals
			}
			require.Len(t, hospitals, want)
			for i, h := range hospitals {
				assert.Equal(t, fmt.Sprintf("Hospital %d", i), h.Name)
				assert.Equal(t, fmt.Sprintf("%d Main St", i), h.Address)
				require.NotNil(t, h.Latitude)
				assert.Equal(t, float64(i), *h.Latitude)
			}
		})
	}
}

func TestNearestSendsFixedSearchParameters(t *testing.T) {
	places := mocks.NewMockPlaces(func(context.Context, provider.NearbyQuery) ([]provider.Place, error) {
		return placesN(1), nil
	})
	_, err := NewHospitalLocator(places).Nearest(context.Background(), 51.5074, -0.1278)
	require.NoError(t, err)

	q, ok := places.LastQuery()
	require.True(t, ok)
	assert.Equal(t, provider.NearbyQuery{
		Latitude:  51.5074,
		Longitude: -0.1278,
		Radius:    5000,
		Category:  "hospital",
	}, q)
}

func TestNearestDefaults(t *testing.T) {
	places := mocks.NewMockPlaces(func(context.Context, provider.NearbyQuery) ([]provider.Place, error) {
		return []provider.Place{{}}, nil
	})
	hospitals, err := NewHospitalLocator(places).Nearest(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, hospitals, 1)

	assert.Equal(t, Hospital{Name: "No name available", Address: "No address available"}, hospitals[0])
}

func TestNearestEmpty(t *testing.T) {
	hospitals, err := NewHospitalLocator(mocks.NewMockPlaces(nil)).Nearest(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrNoHospitals)
	assert.Nil(t, hospitals)
	assert.Equal(t, "No hospitals found nearby", err.Error())
}

func TestNearestUpstreamError(t *testing.T) {
	boom := errors.New("maps: OVER_QUERY_LIMIT - ")
	places := mocks.NewMockPlaces(func(context.Context, provider.NearbyQuery) ([]provider.Place, error) {
		return nil, boom
	})
	_, err := NewHospitalLocator(places).Nearest(context.Background(), 1, 1)
	assert.ErrorIs(t, err, boom)
}

func TestNearestWithGooglePlacesRendersMissingGeometryAsNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "OK", "results": [{"name": "No Geo Hospital", "vicinity": "x"}]}`)
	}))
	defer srv.Close()

	places, err := provider.NewGooglePlaces(config.PlacesConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	hospitals, err := NewHospitalLocator(places).Nearest(context.Background(), 1, 1)
	require.NoError(t, err)

	body, err := json.Marshal(HospitalsResponse{Hospitals: hospitals})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hospitals":[{"name":"No Geo Hospital","address":"x","latitude":null,"longitude":null}]}`, string(body))
}
