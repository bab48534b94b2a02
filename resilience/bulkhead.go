package resilience

import (
	"context"
	"sync"
	"time"
)

// Bulkhead limits concurrent operations, configured by an immutable
// BulkheadProperties bundle.
type Bulkhead struct {
	props BulkheadProperties
	sem   chan struct{}

	mu        sync.Mutex
	active    int
	maxActive int
	rejected  int64
}

// NewBulkhead creates a bulkhead from a resolved property bundle.
// A non-positive MaxConcurrent falls back to the code default.
func NewBulkhead(p BulkheadProperties) *Bulkhead {
	if p.MaxConcurrent <= 0 {
		p.MaxConcurrent = DefaultBulkheadProperties().MaxConcurrent
	}

	return &Bulkhead{
		props: p,
		sem:   make(chan struct{}, p.MaxConcurrent),
	}
}

// Properties returns the bundle the bulkhead was built from.
func (b *Bulkhead) Properties() BulkheadProperties {
	return b.props
}

// Acquire claims a slot, waiting up to MaxWait when none is free.
// Returns ErrBulkheadFull when no slot becomes available in time.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		b.noteAcquired()
		return nil
	default:
	}

	if b.props.MaxWait <= 0 {
		b.noteRejected()
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.props.MaxWait)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		b.noteAcquired()
		return nil
	case <-timer.C:
		b.noteRejected()
		return ErrBulkheadFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot claimed by Acquire.
func (b *Bulkhead) Release() {
	select {
	case <-b.sem:
		b.mu.Lock()
		b.active--
		b.mu.Unlock()
	default:
		// Release without a matching Acquire; nothing to return.
	}
}

// Execute runs the operation within the bulkhead.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()

	return op(ctx)
}

func (b *Bulkhead) noteAcquired() {
	b.mu.Lock()
	b.active++
	if b.active > b.maxActive {
		b.maxActive = b.active
	}
	b.mu.Unlock()
}

func (b *Bulkhead) noteRejected() {
	b.mu.Lock()
	b.rejected++
	b.mu.Unlock()
}

// BulkheadStats is a point-in-time snapshot of bulkhead counters.
type BulkheadStats struct {
	Active        int
	MaxActive     int
	Available     int
	MaxConcurrent int
	Rejected      int64
}

// Stats returns current bulkhead statistics.
func (b *Bulkhead) Stats() BulkheadStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BulkheadStats{
		Active:        b.active,
		MaxActive:     b.maxActive,
		Available:     b.props.MaxConcurrent - b.active,
		MaxConcurrent: b.props.MaxConcurrent,
		Rejected:      b.rejected,
	}
}
