package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/teilomillet/medtriage/server/metrics"
)

// unmatchedEndpoint labels requests that matched no route, keeping the
// endpoint label bounded.
const unmatchedEndpoint = "unmatched"

// PrometheusMetrics middleware records HTTP metrics using Prometheus.
// Requests are labelled with the chi route pattern rather than the raw path.
func PrometheusMetrics(m *metrics.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.ActiveRequests.WithLabelValues("http").Inc()
			defer m.ActiveRequests.WithLabelValues("http").Dec()

			rw := NewResponseWriter(w)
			next.ServeHTTP(rw, r)

			endpoint := unmatchedEndpoint
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					endpoint = pattern
				}
			}

			statusCode := rw.Status()
			m.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
			m.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

			if statusCode >= 500 {
				m.ErrorsTotal.WithLabelValues("server_error").Inc()
			} else if statusCode >= 400 {
				m.ErrorsTotal.WithLabelValues("client_error").Inc()
			}
		})
	}
}
