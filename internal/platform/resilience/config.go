package resilience

import "time"

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 15 * time.Second
	defaultHalfOpenMaxReq   = 2
)

// CircuitBreakerConfig is the per-provider breaker setting read from the
// PROVIDER_CIRCUIT_* variables. The zero value leaves the circuit off.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

// Breaker builds the breaker for one provider client, or nil when the
// circuit is switched off. Unset limits take the package defaults.
func (c CircuitBreakerConfig) Breaker() *CircuitBreaker {
	if !c.Enabled {
		return nil
	}
	threshold := c.FailureThreshold
	if threshold < 1 {
		threshold = defaultFailureThreshold
	}
	window := c.OpenTimeout
	if window <= 0 {
		window = defaultOpenTimeout
	}
	trial := c.HalfOpenMaxReq
	if trial < 1 {
		trial = defaultHalfOpenMaxReq
	}
	return NewCircuitBreaker(threshold, window, trial)
}
