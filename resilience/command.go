package resilience

import (
	"context"
	"fmt"
)

// Command is a named operation guarded by a bulkhead and a circuit breaker
// whose settings are resolved through a Registry's property caches. Two
// commands built from one registry under the same name share the same
// canonical property bundles.
type Command struct {
	name     string
	breaker  *CircuitBreaker
	bulkhead *Bulkhead
}

type commandOptions struct {
	circuitOverrides  *CircuitOverrides
	bulkheadOverrides *BulkheadOverrides
	circuitOpts       []CircuitOption
}

// CommandOption configures command construction.
type CommandOption func(*commandOptions)

// WithCircuitOverrides applies per-command circuit overrides.
func WithCircuitOverrides(o *CircuitOverrides) CommandOption {
	return func(co *commandOptions) {
		co.circuitOverrides = o
	}
}

// WithBulkheadOverrides applies per-command bulkhead overrides.
func WithBulkheadOverrides(o *BulkheadOverrides) CommandOption {
	return func(co *commandOptions) {
		co.bulkheadOverrides = o
	}
}

// WithCircuitOptions forwards behavior options to the command's breaker.
func WithCircuitOptions(opts ...CircuitOption) CommandOption {
	return func(co *commandOptions) {
		co.circuitOpts = append(co.circuitOpts, opts...)
	}
}

// Command builds a named command, resolving its circuit and bulkhead
// properties through the registry's caches.
func (r *Registry) Command(ctx context.Context, name string, opts ...CommandOption) (*Command, error) {
	var co commandOptions
	for _, opt := range opts {
		opt(&co)
	}

	cp, err := r.CircuitProperties(ctx, CircuitKey(name), co.circuitOverrides)
	if err != nil {
		return nil, fmt.Errorf("resilience: circuit properties for %q: %w", name, err)
	}
	bp, err := r.BulkheadProperties(ctx, BulkheadKey(name), co.bulkheadOverrides)
	if err != nil {
		return nil, fmt.Errorf("resilience: bulkhead properties for %q: %w", name, err)
	}

	return &Command{
		name:     name,
		breaker:  NewCircuitBreaker(cp, co.circuitOpts...),
		bulkhead: NewBulkhead(bp),
	}, nil
}

// Name returns the command name.
func (c *Command) Name() string {
	return c.name
}

// Execute runs the operation inside the command's bulkhead and circuit
// breaker.
func (c *Command) Execute(ctx context.Context, op func(context.Context) error) error {
	return c.bulkhead.Execute(ctx, func(ctx context.Context) error {
		return c.breaker.Execute(ctx, op)
	})
}

// Breaker exposes the command's circuit breaker.
func (c *Command) Breaker() *CircuitBreaker {
	return c.breaker
}

// Bulkhead exposes the command's bulkhead.
func (c *Command) Bulkhead() *Bulkhead {
	return c.bulkhead
}
