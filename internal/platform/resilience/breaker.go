// Package resilience wraps outbound calls that may fail for a while, such as
// publishing to Kafka, in a circuit breaker.
package resilience

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// StateObserver receives breaker state transitions. Implemented by observability.Metrics.
type StateObserver interface {
	SetBreakerState(name string, state int)
}

// BreakerSettings tunes NewCircuitBreaker. Zero values fall back to the defaults.
type BreakerSettings struct {
	MaxRequests  uint32        // requests allowed through while half-open
	Interval     time.Duration // closed-state counter reset period
	Timeout      time.Duration // open period before probing again
	MinRequests  uint32
	FailureRatio float64
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval == 0 {
		s.Interval = 30 * time.Second
	}
	if s.Timeout == 0 {
		s.Timeout = 10 * time.Second
	}
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}
	return s
}

// NewCircuitBreaker creates a breaker that opens once at least MinRequests were
// seen and FailureRatio of them failed. observer may be nil.
func NewCircuitBreaker(name string, settings BreakerSettings, logger *slog.Logger, observer StateObserver) *gobreaker.CircuitBreaker {
	s := settings.withDefaults()
	if observer != nil {
		observer.SetBreakerState(name, int(gobreaker.StateClosed))
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			if observer != nil {
				observer.SetBreakerState(name, int(to))
			}
		},
	})
}
