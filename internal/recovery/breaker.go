package recovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/envprobe/envprobe/internal/logging"
)

// BreakerRegistry manages one circuit breaker per probe category. Probes that
// hit flaky external surfaces (package managers, network endpoints) wrap
// themselves with WithBreaker so a run against a broken surface fails fast
// instead of burning its timeout on every task in the category.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	logger   logging.Logger
}

// NewBreakerRegistry creates an empty registry logging state changes to logger.
func NewBreakerRegistry(logger logging.Logger) *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		logger:   logger,
	}
}

// Get returns the circuit breaker for the given category, creating it on
// first use.
func (r *BreakerRegistry) Get(category string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[category]; ok {
		return cb
	}

	logger := r.logger
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        category,
		MaxRequests: 3,                // Test requests allowed in half-open state
		Interval:    0,                // Don't clear counts automatically
		Timeout:     30 * time.Second, // Stay open for 30s before testing recovery
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logging.Emit(logger, logging.LevelWarn, "recovery", "breaker_state",
				"circuit breaker state changed",
				map[string]any{"category": name, "from": from.String(), "to": to.String()})
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation is not a surface failure.
			if err == nil {
				return true
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			return false
		},
	})

	r.breakers[category] = cb
	return cb
}

// WithBreaker wraps op so invocations flow through the registry's breaker for
// category. While the breaker is open the operation is not invoked at all and
// a non-retryable classified error is returned instead.
func WithBreaker[T any](r *BreakerRegistry, category string, op func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		cb := r.Get(category)

		result, err := cb.Execute(func() (interface{}, error) {
			return op(ctx)
		})
		if err != nil {
			var zero T
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return zero, Classify(err, CategoryUnknown, "recovery", "breaker",
					"circuit open for category "+category,
					WithRetryable(false),
					WithSuggestedAction("Too many consecutive failures in this category; wait and re-run."))
			}
			return zero, err
		}
		return result.(T), nil
	}
}
