package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/itsneelabh/rovermind/core"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryConfig provides sensible defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// DashboardRetryConfig is tuned for calls made from the robot's tick
// thread: two quick attempts with delays short enough that a transient
// hiccup resolves within a couple of ticks, while a dead backend is left
// to the circuit breaker. The watchdog reports any tick the retry still
// manages to blow.
func DashboardRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  5 * time.Millisecond,
		MaxDelay:      20 * time.Millisecond,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// delayFor returns the sleep before the retry following the given attempt:
// exponential in the attempt number, capped at MaxDelay, with up to 20%
// jitter so clients sharing a backend do not retry in lockstep.
func (c *RetryConfig) delayFor(attempt int) time.Duration {
	delay := c.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * c.BackoffFactor)
		if delay >= c.MaxDelay {
			delay = c.MaxDelay
			break
		}
	}
	if c.JitterEnabled && delay > 0 {
		delay += time.Duration(rand.Int63n(int64(delay)/5 + 1))
	}
	return delay
}

// Retry runs fn until it succeeds, the attempts are exhausted, or the
// context is canceled. An open circuit breaker surfacing through fn stops
// the retries immediately: a breaker will not close within a retry window,
// so further attempts would only burn the caller's time budget.
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if registry := core.GetGlobalMetricsRegistry(); registry != nil {
			registry.Counter("resilience.retry.attempts")
		}

		if errors.Is(lastErr, core.ErrCircuitBreakerOpen) {
			return lastErr
		}
		if attempt >= config.MaxAttempts {
			break
		}

		timer := time.NewTimer(config.delayFor(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("resilience.retry.exhausted")
	}
	return fmt.Errorf("max retry attempts (%d) exceeded for %v: %w", config.MaxAttempts, lastErr, core.ErrMaxRetriesExceeded)
}

// RetryWithCircuitBreaker runs fn under both policies: the breaker decides
// whether an attempt may reach the backend at all, the retry decides how
// many attempts to make.
func RetryWithCircuitBreaker(ctx context.Context, config *RetryConfig, cb *CircuitBreaker, fn func() error) error {
	return Retry(ctx, config, func() error {
		return cb.Execute(fn)
	})
}
