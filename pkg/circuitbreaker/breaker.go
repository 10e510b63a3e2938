// Package circuitbreaker wraps sony/gobreaker with the settings used for
// the Redis-backed caches: trip after a run of consecutive failures and
// probe again after a short cool-down, so a dead cache degrades to the
// database instead of adding a timeout to every request.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// New builds a breaker. isSuccessful lets callers exempt expected errors
// (a cache miss is not a failure) from tripping the breaker; pass nil to
// count every error.
func New[T any](name string, isSuccessful func(error) bool) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isSuccessful,
	})
}
