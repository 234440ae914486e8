package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveUpstream(t *testing.T) {
	m := NewMetrics()

	m.ObserveUpstream(ServicePlaces, OutcomeSuccess, 120*time.Millisecond)
	m.ObserveUpstream(ServicePlaces, OutcomeEmpty, 80*time.Millisecond)
	m.ObserveUpstream(ServiceChat, OutcomeError, 2*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues(ServicePlaces, OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues(ServicePlaces, OutcomeEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues(ServiceChat, OutcomeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues(ServiceChat, OutcomeSuccess)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.UpstreamDuration))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RequestsTotal.WithLabelValues("/triage", "200").Inc()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `medtriage_http_requests_total{endpoint="/triage",status="200"} 1`)
	assert.Contains(t, body, "medtriage_upstream_requests_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsInstancesAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.ErrorsTotal.WithLabelValues("validation_error").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ErrorsTotal.WithLabelValues("validation_error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ErrorsTotal.WithLabelValues("validation_error")))
}
