package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/teilomillet/medtriage/errors"
	"github.com/teilomillet/medtriage/server/metrics"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	metrics  *metrics.Metrics
}

// NewRateLimiter allows requestsPerMinute per client with the given burst.
// m may be nil.
func NewRateLimiter(requestsPerMinute, burst int, m *metrics.Metrics) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:    burst,
		metrics:  m,
	}
}

func (l *RateLimiter) getOrCreate(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.visitors[ip]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.visitors[ip] = limiter
	}
	return limiter
}

// Handler rejects clients over their allowance with 429.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)

		if !l.getOrCreate(ip).Allow() {
			if l.metrics != nil {
				l.metrics.RateLimitHits.WithLabelValues(ip).Inc()
			}
			errors.WriteError(w, errors.NewRateLimitError(GetRequestID(r.Context())))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the address the request is accounted to. It is the
// RemoteAddr host, except that a loopback peer (the page's own call to the
// triage endpoint, or a local reverse proxy) may name the client with the
// last X-Forwarded-For entry.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		return host
	}
	if fwd := forwardedFor(r.Header.Get(ForwardedForHeader)); fwd != "" {
		return fwd
	}
	return host
}

func forwardedFor(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Split(header, ",")
	last := strings.TrimSpace(parts[len(parts)-1])
	if net.ParseIP(last) == nil {
		return ""
	}
	return last
}
