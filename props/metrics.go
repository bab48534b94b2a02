package props

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// cacheMetrics records cache events through a caller-supplied meter.
// A nil *cacheMetrics is valid and records nothing.
type cacheMetrics struct {
	attrs    metric.MeasurementOption
	hits     metric.Int64Counter
	misses   metric.Int64Counter
	installs metric.Int64Counter
	races    metric.Int64Counter
	bypasses metric.Int64Counter
	failures metric.Int64Counter
}

// newCacheMetrics creates the counter set on the given meter, tagged with
// the cache kind.
func newCacheMetrics(meter metric.Meter, kind string) (*cacheMetrics, error) {
	hits, err := meter.Int64Counter(
		"props.cache.hits",
		metric.WithDescription("Lookups served from an installed entry"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"props.cache.misses",
		metric.WithDescription("Lookups that found no installed entry"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	installs, err := meter.Int64Counter(
		"props.cache.installs",
		metric.WithDescription("Candidates that won the install for their key"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	races, err := meter.Int64Counter(
		"props.cache.races",
		metric.WithDescription("Candidates discarded because another caller installed first"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	bypasses, err := meter.Int64Counter(
		"props.cache.bypass",
		metric.WithDescription("Calls constructed without caching (empty cache key)"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"props.cache.failures",
		metric.WithDescription("Construction errors; nothing is installed for these"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &cacheMetrics{
		attrs:    metric.WithAttributes(attribute.String("cache.kind", kind)),
		hits:     hits,
		misses:   misses,
		installs: installs,
		races:    races,
		bypasses: bypasses,
		failures: failures,
	}, nil
}

func (m *cacheMetrics) hit(ctx context.Context) {
	if m == nil {
		return
	}
	m.hits.Add(ctx, 1, m.attrs)
}

func (m *cacheMetrics) miss(ctx context.Context) {
	if m == nil {
		return
	}
	m.misses.Add(ctx, 1, m.attrs)
}

func (m *cacheMetrics) installed(ctx context.Context) {
	if m == nil {
		return
	}
	m.installs.Add(ctx, 1, m.attrs)
}

func (m *cacheMetrics) race(ctx context.Context) {
	if m == nil {
		return
	}
	m.races.Add(ctx, 1, m.attrs)
}

func (m *cacheMetrics) bypass(ctx context.Context) {
	if m == nil {
		return
	}
	m.bypasses.Add(ctx, 1, m.attrs)
}

func (m *cacheMetrics) failure(ctx context.Context) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1, m.attrs)
}
