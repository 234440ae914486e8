package circuitbreaker

import "errors"

var (
	// ErrCircuitOpen is returned when the circuit breaker rejects a call,
	// either because it is open or because the half-open trial quota is used up.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)
