package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrOpen is returned by Call while the circuit is open.
var ErrOpen = errors.New("circuit breaker open")

// State represents the circuit breaker state.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// State is the circuit breaker state (Closed, Open, HalfOpen).
type State int

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker parameters.
type Config struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int
	// SuccessThreshold consecutive half-open successes close it again.
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before letting a trial call through.
	Cooldown time.Duration
	// Name identifies the protected target in errors and callbacks.
	Name string
	// IsFailure decides which errors count against the target. Nil counts every error.
	IsFailure     func(error) bool
	OnStateChange func(from, to State)
}

// CircuitBreaker stops calls to a target that keeps failing, so a dead target costs
// one error per call instead of one timeout per call.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	cfg Config
	now func() time.Time
}

// New creates a new CircuitBreaker with the given config.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		state: StateClosed,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Call runs fn when the circuit allows it. While open it returns ErrOpen until the
// cooldown elapses, then lets calls through half-open. fn's error is returned as is.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	if cb.state != StateOpen {
		cb.mu.Unlock()
		return nil
	}
	if cb.now().Sub(cb.lastFailureTime) < cb.cfg.Cooldown {
		cb.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrOpen, cb.cfg.Name)
	}
	cb.successCount = 0
	cb.transition(StateHalfOpen)
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	if cb.cfg.IsFailure(err) {
		cb.failureCount++
		cb.lastFailureTime = cb.now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.cfg.FailureThreshold {
			cb.failureCount = 0
			cb.transition(StateOpen)
			return
		}
		cb.mu.Unlock()
		return
	}

	cb.failureCount = 0
	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.cfg.SuccessThreshold {
			cb.successCount = 0
			cb.transition(StateClosed)
			return
		}
	}
	cb.mu.Unlock()
}

// transition sets the state, releases cb.mu and notifies OnStateChange.
// The caller must hold cb.mu.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	cb.mu.Unlock()
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(from, to)
	}
}

// State returns the current state (for metrics).
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
