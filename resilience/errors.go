package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrCollapserClosed is returned for submissions after Close.
	ErrCollapserClosed = errors.New("resilience: collapser is closed")

	// ErrBatchMismatch is returned when a batch function yields a result
	// count different from its request count.
	ErrBatchMismatch = errors.New("resilience: batch result count mismatch")
)
