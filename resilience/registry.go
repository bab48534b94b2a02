package resilience

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/propcache/props"
)

// Registry owns one property cache per bundle kind. Every caller asking a
// registry for the properties of a given name converges on one canonical
// bundle; independent registries have independent key spaces, so a fresh
// registry per test or per composition root gives full isolation.
type Registry struct {
	circuits   *props.Cache[CircuitKey, *CircuitOverrides, CircuitProperties]
	bulkheads  *props.Cache[BulkheadKey, *BulkheadOverrides, BulkheadProperties]
	collapsers *props.Cache[CollapserKey, *CollapserOverrides, CollapserProperties]
}

type registryOptions struct {
	meter  metric.Meter
	lookup EnvLookup
	single bool

	circuitStrategy   props.Strategy[CircuitKey, *CircuitOverrides, CircuitProperties]
	bulkheadStrategy  props.Strategy[BulkheadKey, *BulkheadOverrides, BulkheadProperties]
	collapserStrategy props.Strategy[CollapserKey, *CollapserOverrides, CollapserProperties]
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

// WithMeter instruments the registry's caches through the given meter.
func WithMeter(m metric.Meter) RegistryOption {
	return func(o *registryOptions) {
		o.meter = m
	}
}

// WithEnvLookup replaces the environment source used by the default
// strategies. Ignored for kinds given an explicit strategy.
func WithEnvLookup(lookup EnvLookup) RegistryOption {
	return func(o *registryOptions) {
		o.lookup = lookup
	}
}

// WithSingleConstruction deduplicates first-time property construction per
// key across all three caches.
func WithSingleConstruction() RegistryOption {
	return func(o *registryOptions) {
		o.single = true
	}
}

// WithCircuitStrategy replaces the default circuit strategy.
func WithCircuitStrategy(s props.Strategy[CircuitKey, *CircuitOverrides, CircuitProperties]) RegistryOption {
	return func(o *registryOptions) {
		o.circuitStrategy = s
	}
}

// WithBulkheadStrategy replaces the default bulkhead strategy.
func WithBulkheadStrategy(s props.Strategy[BulkheadKey, *BulkheadOverrides, BulkheadProperties]) RegistryOption {
	return func(o *registryOptions) {
		o.bulkheadStrategy = s
	}
}

// WithCollapserStrategy replaces the default collapser strategy.
func WithCollapserStrategy(s props.Strategy[CollapserKey, *CollapserOverrides, CollapserProperties]) RegistryOption {
	return func(o *registryOptions) {
		o.collapserStrategy = s
	}
}

// NewRegistry creates a Registry with one cache per bundle kind.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	o := registryOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.circuitStrategy == nil {
		o.circuitStrategy = NewCircuitStrategy(o.lookup)
	}
	if o.bulkheadStrategy == nil {
		o.bulkheadStrategy = NewBulkheadStrategy(o.lookup)
	}
	if o.collapserStrategy == nil {
		o.collapserStrategy = NewCollapserStrategy(o.lookup)
	}

	kindOpts := func(kind string) []props.Option {
		cacheOpts := []props.Option{props.WithKind(kind)}
		if o.meter != nil {
			cacheOpts = append(cacheOpts, props.WithMeter(o.meter))
		}
		if o.single {
			cacheOpts = append(cacheOpts, props.WithSingleConstruction())
		}
		return cacheOpts
	}

	circuits, err := props.New(o.circuitStrategy, kindOpts("circuit")...)
	if err != nil {
		return nil, err
	}
	bulkheads, err := props.New(o.bulkheadStrategy, kindOpts("bulkhead")...)
	if err != nil {
		return nil, err
	}
	collapsers, err := props.New(o.collapserStrategy, kindOpts("collapser")...)
	if err != nil {
		return nil, err
	}

	return &Registry{
		circuits:   circuits,
		bulkheads:  bulkheads,
		collapsers: collapsers,
	}, nil
}

// CircuitProperties returns the canonical circuit properties for key,
// constructing and caching them on first use. A nil overrides pointer means
// "no overrides".
func (r *Registry) CircuitProperties(ctx context.Context, key CircuitKey, overrides *CircuitOverrides) (CircuitProperties, error) {
	return r.circuits.GetOrCreate(ctx, key, overrides, nil)
}

// BulkheadProperties returns the canonical bulkhead properties for key,
// constructing and caching them on first use.
func (r *Registry) BulkheadProperties(ctx context.Context, key BulkheadKey, overrides *BulkheadOverrides) (BulkheadProperties, error) {
	return r.bulkheads.GetOrCreate(ctx, key, overrides, nil)
}

// CollapserProperties returns the canonical collapser properties for key,
// constructing and caching them on first use.
func (r *Registry) CollapserProperties(ctx context.Context, key CollapserKey, overrides *CollapserOverrides) (CollapserProperties, error) {
	return r.collapsers.GetOrCreate(ctx, key, overrides, nil)
}
