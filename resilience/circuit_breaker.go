// Package resilience provides fault-tolerance patterns for the framework's
// external touch points. The scheduler core is purely in-process and needs
// none of this; the dashboard's Redis backend does, so the Redis publisher
// wraps its round-trips in a circuit breaker and retry.
package resilience

import (
	"sync"
	"time"

	"github.com/itsneelabh/rovermind/core"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// StateClosed allows all requests through
	StateClosed CircuitState = iota
	// StateOpen blocks all requests
	StateOpen
	// StateHalfOpen allows limited requests for testing recovery
	StateHalfOpen
)

// String returns the string representation of the state
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	// Name identifies the circuit breaker in logs and metrics
	Name string

	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold int

	// RecoveryTimeout is how long to wait before attempting recovery
	RecoveryTimeout time.Duration

	// HalfOpenRequests is how many probe requests the half-open state
	// allows before deciding
	HalfOpenRequests int

	// Logger for state transitions
	Logger core.Logger
}

// DefaultCircuitBreakerConfig provides sensible defaults
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenRequests: 3,
	}
}

// CircuitBreaker prevents repeated calls to a failing backend: after the
// failure threshold is reached it fails fast for the recovery timeout, then
// lets a few probes through before closing again.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	logger core.Logger

	mu               sync.Mutex
	state            CircuitState
	failures         int
	halfOpenAttempts int
	halfOpenSuccess  int
	openedAt         time.Time

	// now is the time source; tests stub it.
	now func() time.Time
}

// NewCircuitBreaker creates a circuit breaker from the configuration.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.HalfOpenRequests <= 0 {
		config.HalfOpenRequests = 3
	}
	logger := config.Logger
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &CircuitBreaker{
		config: config,
		logger: logger,
		state:  StateClosed,
		now:    time.Now,
	}
}

// State returns the current state, accounting for recovery timeouts.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeTransitionToHalfOpen()
	return cb.state
}

// CanExecute reports whether a request may proceed.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.maybeTransitionToHalfOpen()

	switch cb.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.halfOpenAttempts < cb.config.HalfOpenRequests {
			cb.halfOpenAttempts++
			return true
		}
		return false
	default:
		if registry := core.GetGlobalMetricsRegistry(); registry != nil {
			registry.Counter("resilience.circuit.rejections", "breaker", cb.config.Name)
		}
		return false
	}
}

// RecordSuccess notes a successful request, closing the breaker from
// half-open once enough probes succeed.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.halfOpenSuccess++
		if cb.halfOpenSuccess >= cb.config.HalfOpenRequests {
			cb.transition(StateClosed)
		}
	}
}

// RecordFailure notes a failed request, opening the breaker when the
// threshold is reached or a half-open probe fails.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
	}
}

// Execute runs fn under the breaker, failing fast when it is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.CanExecute() {
		return core.ErrCircuitBreakerOpen
	}
	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// transition must be called with the mutex held.
func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	switch to {
	case StateOpen:
		cb.openedAt = cb.now()
	case StateClosed:
		cb.failures = 0
	}
	cb.halfOpenAttempts = 0
	cb.halfOpenSuccess = 0

	cb.logger.Warn("Circuit breaker state change", map[string]interface{}{
		"operation": "circuit_transition",
		"breaker":   cb.config.Name,
		"from":      from.String(),
		"to":        to.String(),
	})
	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("resilience.circuit.transitions",
			"breaker", cb.config.Name, "from", from.String(), "to", to.String())
	}
}

// maybeTransitionToHalfOpen must be called with the mutex held.
func (cb *CircuitBreaker) maybeTransitionToHalfOpen() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.RecoveryTimeout {
		cb.transition(StateHalfOpen)
	}
}
