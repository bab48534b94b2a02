package resilience

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/propcache/props"
)

// EnvLookup resolves an environment variable, os.LookupEnv-compatible.
// Injectable so tests and embedders can isolate the environment.
type EnvLookup func(key string) (string, bool)

// envPrefix leads every recognized variable name.
const envPrefix = "RESILIENCE"

// envSource reads override variables for one kind/name pair, falling back to
// the kind's DEFAULT scope when no per-name variable is set.
type envSource struct {
	lookup EnvLookup
	kind   string
	name   string
}

func newEnvSource(lookup EnvLookup, kind, name string) envSource {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return envSource{lookup: lookup, kind: kind, name: envSegment(name)}
}

// envSegment folds a logical name into an environment-variable segment:
// upper-cased, with anything outside [A-Z0-9] becoming '_'.
func envSegment(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (e envSource) value(field string) (string, string, bool) {
	name := envPrefix + "_" + e.kind + "_" + e.name + "_" + field
	if v, ok := e.lookup(name); ok {
		return v, name, true
	}
	name = envPrefix + "_" + e.kind + "_DEFAULT_" + field
	if v, ok := e.lookup(name); ok {
		return v, name, true
	}
	return "", "", false
}

func (e envSource) intVar(field string, dst *int) error {
	v, name, ok := e.value(field)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("resilience: %s=%q: %w", name, v, err)
	}
	*dst = n
	return nil
}

func (e envSource) boolVar(field string, dst *bool) error {
	v, name, ok := e.value(field)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("resilience: %s=%q: %w", name, v, err)
	}
	*dst = b
	return nil
}

func (e envSource) durationVar(field string, dst *time.Duration) error {
	v, name, ok := e.value(field)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("resilience: %s=%q: %w", name, v, err)
	}
	*dst = d
	return nil
}

// bundleKey derives "<kind>:<name>:<fingerprint>" from the normalized
// overrides, so "no overrides" and "explicit empty overrides" share a slot
// while differing overrides get their own. Unfingerprintable overrides
// derive no key, leaving the call uncached.
func bundleKey(kind, name string, overrides any) string {
	k, err := props.BundleKey(kind, name, overrides)
	if err != nil {
		return ""
	}
	return k
}

// CircuitStrategy resolves CircuitProperties with the precedence
// code defaults < environment < per-call overrides.
type CircuitStrategy struct {
	lookup EnvLookup
}

// NewCircuitStrategy creates the default circuit strategy. A nil lookup
// reads the process environment.
func NewCircuitStrategy(lookup EnvLookup) *CircuitStrategy {
	return &CircuitStrategy{lookup: lookup}
}

// CacheKey derives the circuit cache key for key and overrides.
func (s *CircuitStrategy) CacheKey(key CircuitKey, o *CircuitOverrides) string {
	if o == nil {
		o = &CircuitOverrides{}
	}
	return bundleKey("circuit", key.Name(), o)
}

// DefaultOverrides returns the empty override set.
func (s *CircuitStrategy) DefaultOverrides() *CircuitOverrides {
	return &CircuitOverrides{}
}

// Construct resolves the circuit properties for key.
func (s *CircuitStrategy) Construct(_ context.Context, key CircuitKey, o *CircuitOverrides) (CircuitProperties, error) {
	p := DefaultCircuitProperties()

	env := newEnvSource(s.lookup, "CIRCUIT", key.Name())
	if err := env.boolVar("ENABLED", &p.Enabled); err != nil {
		return CircuitProperties{}, err
	}
	if err := env.intVar("MAX_FAILURES", &p.MaxFailures); err != nil {
		return CircuitProperties{}, err
	}
	if err := env.durationVar("RESET_TIMEOUT", &p.ResetTimeout); err != nil {
		return CircuitProperties{}, err
	}
	if err := env.intVar("HALF_OPEN_MAX_REQUESTS", &p.HalfOpenMaxRequests); err != nil {
		return CircuitProperties{}, err
	}

	if o != nil {
		if o.Enabled != nil {
			p.Enabled = *o.Enabled
		}
		if o.MaxFailures != nil {
			p.MaxFailures = *o.MaxFailures
		}
		if o.ResetTimeout != nil {
			p.ResetTimeout = *o.ResetTimeout
		}
		if o.HalfOpenMaxRequests != nil {
			p.HalfOpenMaxRequests = *o.HalfOpenMaxRequests
		}
	}

	return p, nil
}

// BulkheadStrategy resolves BulkheadProperties with the precedence
// code defaults < environment < per-call overrides.
type BulkheadStrategy struct {
	lookup EnvLookup
}

// NewBulkheadStrategy creates the default bulkhead strategy. A nil lookup
// reads the process environment.
func NewBulkheadStrategy(lookup EnvLookup) *BulkheadStrategy {
	return &BulkheadStrategy{lookup: lookup}
}

// CacheKey derives the bulkhead cache key for key and overrides.
func (s *BulkheadStrategy) CacheKey(key BulkheadKey, o *BulkheadOverrides) string {
	if o == nil {
		o = &BulkheadOverrides{}
	}
	return bundleKey("bulkhead", key.Name(), o)
}

// DefaultOverrides returns the empty override set.
func (s *BulkheadStrategy) DefaultOverrides() *BulkheadOverrides {
	return &BulkheadOverrides{}
}

// Construct resolves the bulkhead properties for key.
func (s *BulkheadStrategy) Construct(_ context.Context, key BulkheadKey, o *BulkheadOverrides) (BulkheadProperties, error) {
	p := DefaultBulkheadProperties()

	env := newEnvSource(s.lookup, "BULKHEAD", key.Name())
	if err := env.intVar("MAX_CONCURRENT", &p.MaxConcurrent); err != nil {
		return BulkheadProperties{}, err
	}
	if err := env.durationVar("MAX_WAIT", &p.MaxWait); err != nil {
		return BulkheadProperties{}, err
	}

	if o != nil {
		if o.MaxConcurrent != nil {
			p.MaxConcurrent = *o.MaxConcurrent
		}
		if o.MaxWait != nil {
			p.MaxWait = *o.MaxWait
		}
	}

	return p, nil
}

// CollapserStrategy resolves CollapserProperties with the precedence
// code defaults < environment < per-call overrides.
type CollapserStrategy struct {
	lookup EnvLookup
}

// NewCollapserStrategy creates the default collapser strategy. A nil lookup
// reads the process environment.
func NewCollapserStrategy(lookup EnvLookup) *CollapserStrategy {
	return &CollapserStrategy{lookup: lookup}
}

// CacheKey derives the collapser cache key for key and overrides.
func (s *CollapserStrategy) CacheKey(key CollapserKey, o *CollapserOverrides) string {
	if o == nil {
		o = &CollapserOverrides{}
	}
	return bundleKey("collapser", key.Name(), o)
}

// DefaultOverrides returns the empty override set.
func (s *CollapserStrategy) DefaultOverrides() *CollapserOverrides {
	return &CollapserOverrides{}
}

// Construct resolves the collapser properties for key.
func (s *CollapserStrategy) Construct(_ context.Context, key CollapserKey, o *CollapserOverrides) (CollapserProperties, error) {
	p := DefaultCollapserProperties()

	env := newEnvSource(s.lookup, "COLLAPSER", key.Name())
	if err := env.intVar("MAX_BATCH_SIZE", &p.MaxBatchSize); err != nil {
		return CollapserProperties{}, err
	}
	if err := env.durationVar("WINDOW", &p.Window); err != nil {
		return CollapserProperties{}, err
	}

	if o != nil {
		if o.MaxBatchSize != nil {
			p.MaxBatchSize = *o.MaxBatchSize
		}
		if o.Window != nil {
			p.Window = *o.Window
		}
	}

	return p, nil
}

// Compile-time strategy checks.
var (
	_ props.Strategy[CircuitKey, *CircuitOverrides, CircuitProperties]       = (*CircuitStrategy)(nil)
	_ props.Strategy[BulkheadKey, *BulkheadOverrides, BulkheadProperties]    = (*BulkheadStrategy)(nil)
	_ props.Strategy[CollapserKey, *CollapserOverrides, CollapserProperties] = (*CollapserStrategy)(nil)
)
