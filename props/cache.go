package props

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

// Cache maps strategy-derived cache keys to immutable property bundles,
// installing each bundle at most once per key for the life of the cache.
//
// Contract:
// - Concurrency: safe for concurrent use; lookups never block on installs.
// - Entries are never replaced or removed once installed.
// - Construction runs outside any lock; racing candidates resolve via an
//   atomic insert-if-absent, and losers are discarded.
//
// A Cache is created explicitly and owned by whatever composes the system;
// there is no package-level instance.
type Cache[I any, O comparable, B any] struct {
	fallback Strategy[I, O, B]
	entries  sync.Map // cache key -> B
	size     atomic.Int64
	single   bool
	group    singleflight.Group
	metrics  *cacheMetrics
}

type options struct {
	meter  metric.Meter
	kind   string
	single bool
}

// Option configures a Cache.
type Option func(*options)

// WithMeter enables instrumentation of cache events through the given meter.
// Without it the cache records nothing.
func WithMeter(m metric.Meter) Option {
	return func(o *options) {
		o.meter = m
	}
}

// WithKind sets the cache.kind attribute on recorded metrics, distinguishing
// multiple caches sharing one meter. Default: "props".
func WithKind(kind string) Option {
	return func(o *options) {
		o.kind = kind
	}
}

// WithSingleConstruction deduplicates first-time construction per key, so
// concurrent misses on one key share a single Construct call. Use it when a
// strategy's construction is not safe to run redundantly; the default mode
// may construct more than once per key under contention and discards the
// losers. Either mode installs exactly one bundle per key.
func WithSingleConstruction() Option {
	return func(o *options) {
		o.single = true
	}
}

// New creates a Cache. The fallback strategy serves GetOrCreate calls made
// with a nil strategy; it may itself be nil when every call supplies one.
func New[I any, O comparable, B any](fallback Strategy[I, O, B], opts ...Option) (*Cache[I, O, B], error) {
	o := options{kind: "props"}
	for _, opt := range opts {
		opt(&o)
	}

	var cm *cacheMetrics
	if o.meter != nil {
		var err error
		cm, err = newCacheMetrics(o.meter, o.kind)
		if err != nil {
			return nil, err
		}
	}

	return &Cache[I, O, B]{
		fallback: fallback,
		single:   o.single,
		metrics:  cm,
	}, nil
}

// GetOrCreate returns the bundle installed under the cache key the strategy
// derives for id and overrides, constructing and installing it on first use.
//
// A nil strategy falls back to the cache's default. An empty derived key
// means the call is served by direct construction and the cache is left
// untouched. Zero-valued overrides are replaced by the strategy's defaults
// before a miss constructs. A construction error propagates unchanged and
// installs nothing, so a later call for the same key retries.
func (c *Cache[I, O, B]) GetOrCreate(ctx context.Context, id I, overrides O, strat Strategy[I, O, B]) (B, error) {
	var zero B
	if c == nil {
		return zero, ErrNilCache
	}
	if strat == nil {
		strat = c.fallback
	}
	if strat == nil {
		return zero, ErrNilStrategy
	}

	key := strat.CacheKey(id, overrides)
	if key == "" {
		// No key, no caching: every such call constructs independently.
		c.metrics.bypass(ctx)
		return strat.Construct(ctx, id, overrides)
	}
	if err := ValidateKey(key); err != nil {
		return zero, err
	}

	if v, ok := c.entries.Load(key); ok {
		c.metrics.hit(ctx)
		return v.(B), nil
	}
	c.metrics.miss(ctx)

	var zeroO O
	if overrides == zeroO {
		overrides = strat.DefaultOverrides()
	}

	if c.single {
		v, err, _ := c.group.Do(key, func() (any, error) {
			if v, ok := c.entries.Load(key); ok {
				return v, nil
			}
			candidate, err := strat.Construct(ctx, id, overrides)
			if err != nil {
				return nil, err
			}
			return c.install(ctx, key, candidate), nil
		})
		if err != nil {
			c.metrics.failure(ctx)
			return zero, err
		}
		return v.(B), nil
	}

	candidate, err := strat.Construct(ctx, id, overrides)
	if err != nil {
		c.metrics.failure(ctx)
		return zero, err
	}
	return c.install(ctx, key, candidate), nil
}

// install publishes candidate under key unless another caller already won
// the race, in which case the candidate is discarded and the winner returned.
func (c *Cache[I, O, B]) install(ctx context.Context, key string, candidate B) B {
	actual, loaded := c.entries.LoadOrStore(key, candidate)
	if loaded {
		c.metrics.race(ctx)
		return actual.(B)
	}
	c.size.Add(1)
	c.metrics.installed(ctx)
	return candidate
}

// Size reports the number of installed entries. It only ever grows.
func (c *Cache[I, O, B]) Size() int {
	if c == nil {
		return 0
	}
	return int(c.size.Load())
}
