// Package circuitbreaker guards calls to external services with a
// gobreaker circuit breaker and reports its state to Prometheus.
package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// State is the breaker state. Numeric values are exported as the state gauge.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Config holds configuration for the circuit breaker
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold uint32
	// MaxRequests is the number of trial calls allowed while half-open
	MaxRequests uint32
	// Interval clears the counts periodically while closed; 0 never clears
	Interval time.Duration
	// Timeout is how long the circuit stays open before probing
	Timeout time.Duration
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	name   string
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger

	stateGauge    prometheus.Gauge
	failuresCount prometheus.Counter
	tripsTotal    prometheus.Counter
}

// NewCircuitBreaker creates a new circuit breaker. Metrics are registered on
// registry when it is non-nil.
func NewCircuitBreaker(name string, config Config, logger *zap.Logger, registry prometheus.Registerer) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := &CircuitBreaker{
		name:   name,
		logger: logger,
	}

	cb.stateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "medtriage_circuit_breaker_state",
		Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		ConstLabels: prometheus.Labels{
			"name": name,
		},
	})

	cb.failuresCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "medtriage_circuit_breaker_failures_total",
		Help: "Total number of failures recorded by the circuit breaker",
		ConstLabels: prometheus.Labels{
			"name": name,
		},
	})

	cb.tripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "medtriage_circuit_breaker_trips_total",
		Help: "Total number of times the circuit breaker has tripped",
		ConstLabels: prometheus.Labels{
			"name": name,
		},
	})

	if registry != nil {
		registry.MustRegister(cb.stateGauge, cb.failuresCount, cb.tripsTotal)
	}

	threshold := config.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}

	cb.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: cb.onStateChange,
		IsSuccessful:  isSuccessful,
	})

	return cb
}

// isSuccessful keeps callers that gave up from counting against the upstream.
func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// onStateChange runs under gobreaker's lock and must not call back into cb.cb.
func (cb *CircuitBreaker) onStateChange(name string, from, to gobreaker.State) {
	cb.stateGauge.Set(float64(to))
	if to == gobreaker.StateOpen {
		cb.tripsTotal.Inc()
		cb.logger.Warn("Circuit breaker tripped",
			zap.String("name", name),
			zap.String("from", from.String()),
		)
		return
	}
	cb.logger.Info("Circuit breaker state changed",
		zap.String("name", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

// Execute runs f if the circuit breaker allows it. A rejected call returns
// ErrCircuitOpen without invoking f.
func (cb *CircuitBreaker) Execute(f func() error) error {
	_, err := cb.cb.Execute(func() (interface{}, error) {
		return nil, f()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	if err != nil && !isSuccessful(err) {
		cb.failuresCount.Inc()
	}
	return err
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() State {
	return cb.cb.State()
}

// Name returns the breaker name used in logs and metric labels.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
