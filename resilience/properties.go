package resilience

import "time"

// CircuitKey identifies a named circuit breaker.
type CircuitKey string

// Name returns the logical circuit name.
func (k CircuitKey) Name() string { return string(k) }

// BulkheadKey identifies a named bulkhead.
type BulkheadKey string

// Name returns the logical bulkhead name.
func (k BulkheadKey) Name() string { return string(k) }

// CollapserKey identifies a named collapser.
type CollapserKey string

// Name returns the logical collapser name.
func (k CollapserKey) Name() string { return string(k) }

// CircuitProperties is the resolved, immutable configuration of one named
// circuit breaker. Once published by a property cache it is shared by every
// caller and must not change.
type CircuitProperties struct {
	// Enabled gates the breaker; a disabled breaker passes every call
	// through untouched.
	Enabled bool

	// MaxFailures is the consecutive-failure count that opens the circuit.
	MaxFailures int

	// ResetTimeout is how long an open circuit waits before probing.
	ResetTimeout time.Duration

	// HalfOpenMaxRequests caps concurrent probes while half-open.
	HalfOpenMaxRequests int
}

// DefaultCircuitProperties returns the code-level circuit defaults.
func DefaultCircuitProperties() CircuitProperties {
	return CircuitProperties{
		Enabled:             true,
		MaxFailures:         5,
		ResetTimeout:        30 * time.Second,
		HalfOpenMaxRequests: 1,
	}
}

// CircuitOverrides carries per-call circuit overrides. Nil fields leave the
// resolved value untouched.
type CircuitOverrides struct {
	Enabled             *bool
	MaxFailures         *int
	ResetTimeout        *time.Duration
	HalfOpenMaxRequests *int
}

// BulkheadProperties is the resolved, immutable configuration of one named
// bulkhead.
type BulkheadProperties struct {
	// MaxConcurrent is the maximum number of concurrent operations.
	MaxConcurrent int

	// MaxWait is how long Acquire waits for a slot. Zero fails immediately.
	MaxWait time.Duration
}

// DefaultBulkheadProperties returns the code-level bulkhead defaults.
func DefaultBulkheadProperties() BulkheadProperties {
	return BulkheadProperties{
		MaxConcurrent: 10,
		MaxWait:       0,
	}
}

// BulkheadOverrides carries per-call bulkhead overrides. Nil fields leave
// the resolved value untouched.
type BulkheadOverrides struct {
	MaxConcurrent *int
	MaxWait       *time.Duration
}

// CollapserProperties is the resolved, immutable configuration of one named
// collapser.
type CollapserProperties struct {
	// MaxBatchSize dispatches a batch once this many requests are pending.
	// Zero means batches are bounded only by the window.
	MaxBatchSize int

	// Window is the maximum time a pending request waits before its batch
	// dispatches.
	Window time.Duration
}

// DefaultCollapserProperties returns the code-level collapser defaults.
func DefaultCollapserProperties() CollapserProperties {
	return CollapserProperties{
		MaxBatchSize: 0,
		Window:       10 * time.Millisecond,
	}
}

// CollapserOverrides carries per-call collapser overrides. Nil fields leave
// the resolved value untouched.
type CollapserOverrides struct {
	MaxBatchSize *int
	Window       *time.Duration
}

// Bool returns a pointer for use in override literals.
func Bool(v bool) *bool { return &v }

// Int returns a pointer for use in override literals.
func Int(v int) *int { return &v }

// Duration returns a pointer for use in override literals.
func Duration(v time.Duration) *time.Duration { return &v }
