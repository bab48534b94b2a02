package resilience

import (
	"context"
	"sync"
	"time"
)

// BatchFunc executes one batch of collapsed requests. It must return one
// result per request, in request order.
type BatchFunc[Req, Res any] func(ctx context.Context, reqs []Req) ([]Res, error)

// Collapser batches concurrent requests into single BatchFunc calls,
// configured by an immutable CollapserProperties bundle. A batch dispatches
// when MaxBatchSize requests are pending or when the window elapses,
// whichever comes first.
type Collapser[Req, Res any] struct {
	props CollapserProperties
	batch BatchFunc[Req, Res]

	mu      sync.Mutex
	pending []waiter[Req, Res]
	timer   *time.Timer
	closed  bool
}

type waiter[Req, Res any] struct {
	req  Req
	done chan outcome[Res]
}

type outcome[Res any] struct {
	res Res
	err error
}

// NewCollapser creates a collapser from a resolved property bundle.
// A non-positive window falls back to the code default; MaxBatchSize zero
// means batches are bounded only by the window.
func NewCollapser[Req, Res any](p CollapserProperties, batch BatchFunc[Req, Res]) *Collapser[Req, Res] {
	if p.Window <= 0 {
		p.Window = DefaultCollapserProperties().Window
	}

	return &Collapser[Req, Res]{
		props: p,
		batch: batch,
	}
}

// Properties returns the bundle the collapser was built from.
func (c *Collapser[Req, Res]) Properties() CollapserProperties {
	return c.props
}

// Do submits req and blocks until its batch completes or ctx is done.
// An abandoned caller's request still executes with its batch; only the
// wait is cancelled.
func (c *Collapser[Req, Res]) Do(ctx context.Context, req Req) (Res, error) {
	var zero Res

	done := make(chan outcome[Res], 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrCollapserClosed
	}
	c.pending = append(c.pending, waiter[Req, Res]{req: req, done: done})

	if c.props.MaxBatchSize > 0 && len(c.pending) >= c.props.MaxBatchSize {
		batch := c.takeLocked()
		c.mu.Unlock()
		go c.dispatch(batch)
	} else {
		if len(c.pending) == 1 {
			c.timer = time.AfterFunc(c.props.Window, c.flush)
		}
		c.mu.Unlock()
	}

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close rejects further submissions and dispatches anything pending.
func (c *Collapser[Req, Res]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	batch := c.takeLocked()
	c.mu.Unlock()

	if len(batch) > 0 {
		c.dispatch(batch)
	}
}

// flush is the window-timer callback.
func (c *Collapser[Req, Res]) flush() {
	c.mu.Lock()
	batch := c.takeLocked()
	c.mu.Unlock()

	if len(batch) > 0 {
		c.dispatch(batch)
	}
}

// takeLocked removes and returns the pending batch. Callers must hold mu.
func (c *Collapser[Req, Res]) takeLocked() []waiter[Req, Res] {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	batch := c.pending
	c.pending = nil
	return batch
}

// dispatch runs one batch and fans results back to the waiters. The batch
// runs detached from any single caller's context.
func (c *Collapser[Req, Res]) dispatch(batch []waiter[Req, Res]) {
	reqs := make([]Req, len(batch))
	for i := range batch {
		reqs[i] = batch[i].req
	}

	results, err := c.batch(context.Background(), reqs)
	if err == nil && len(results) != len(reqs) {
		err = ErrBatchMismatch
	}

	for i, w := range batch {
		out := outcome[Res]{err: err}
		if err == nil {
			out.res = results[i]
		}
		w.done <- out
	}
}
