package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the dependency recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
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

// CircuitBreaker implements the circuit breaker pattern, configured by an
// immutable CircuitProperties bundle. Behavior hooks that are not
// configuration (state-change notification, failure classification) are
// supplied as options.
type CircuitBreaker struct {
	props         CircuitProperties
	onStateChange func(from, to State)
	isFailure     func(err error) bool

	mu            sync.Mutex
	state         State
	failures      int
	lastFailure   time.Time
	halfOpenCount int
}

// CircuitOption configures breaker behavior outside the property bundle.
type CircuitOption func(*CircuitBreaker)

// WithStateChange registers a state transition callback.
func WithStateChange(fn func(from, to State)) CircuitOption {
	return func(cb *CircuitBreaker) {
		cb.onStateChange = fn
	}
}

// WithFailureClassifier replaces the default classifier (every non-nil
// error counts as a failure).
func WithFailureClassifier(fn func(err error) bool) CircuitOption {
	return func(cb *CircuitBreaker) {
		cb.isFailure = fn
	}
}

// NewCircuitBreaker creates a circuit breaker from a resolved property
// bundle. Non-positive fields fall back to the code defaults so a
// hand-built bundle behaves sensibly.
func NewCircuitBreaker(p CircuitProperties, opts ...CircuitOption) *CircuitBreaker {
	def := DefaultCircuitProperties()
	if p.MaxFailures <= 0 {
		p.MaxFailures = def.MaxFailures
	}
	if p.ResetTimeout <= 0 {
		p.ResetTimeout = def.ResetTimeout
	}
	if p.HalfOpenMaxRequests <= 0 {
		p.HalfOpenMaxRequests = def.HalfOpenMaxRequests
	}

	cb := &CircuitBreaker{
		props: p,
		state: StateClosed,
		isFailure: func(err error) bool {
			return err != nil
		},
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Properties returns the bundle the breaker was built from.
func (cb *CircuitBreaker) Properties() CircuitProperties {
	return cb.props
}

// Execute runs the operation through the circuit breaker. A disabled
// breaker passes the call straight through.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if !cb.props.Enabled {
		return op(ctx)
	}

	if err := cb.allow(); err != nil {
		return err
	}

	err := op(ctx)
	cb.record(err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

// Reset forces the circuit back to closed and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	from := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.halfOpenCount = 0
	cb.notify(from, StateClosed)
}

// allow admits or rejects a request based on the current state.
func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.stateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenCount >= cb.props.HalfOpenMaxRequests {
			return ErrCircuitOpen
		}
		cb.halfOpenCount++
	}
	return nil
}

// record applies the outcome of an admitted request.
func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.isFailure(err)
	from := cb.state

	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			return
		}
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.failures >= cb.props.MaxFailures {
			cb.state = StateOpen
		}

	case StateHalfOpen:
		if failed {
			// Probe failed: restart the open timeout.
			cb.lastFailure = time.Now()
			cb.state = StateOpen
		} else {
			cb.state = StateClosed
			cb.failures = 0
		}
	}

	cb.notify(from, cb.state)
}

// stateLocked returns the effective state, moving open to half-open once the
// reset timeout has elapsed. Callers must hold mu.
func (cb *CircuitBreaker) stateLocked() State {
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.props.ResetTimeout {
		cb.state = StateHalfOpen
		cb.halfOpenCount = 0
		cb.notify(StateOpen, StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) notify(from, to State) {
	if from != to && cb.onStateChange != nil {
		cb.onStateChange(from, to)
	}
}

// CircuitStats is a point-in-time snapshot of breaker counters.
type CircuitStats struct {
	State       State
	Failures    int
	LastFailure time.Time
}

// Stats returns current breaker statistics.
func (cb *CircuitBreaker) Stats() CircuitStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitStats{
		State:       cb.stateLocked(),
		Failures:    cb.failures,
		LastFailure: cb.lastFailure,
	}
}
