// Package resilience provides circuit breaker, bulkhead, and request
// collapser components whose configuration is resolved through per-kind
// property caches.
//
// Each component kind has an immutable property bundle (CircuitProperties,
// BulkheadProperties, CollapserProperties) resolved by a strategy that merges
// code defaults, process environment overrides, and per-call overrides. A
// Registry owns one cache per kind, so every caller asking for the
// properties of a given name converges on one canonical bundle.
//
// Environment overrides follow the pattern
//
//	RESILIENCE_<KIND>_<NAME>_<FIELD>
//
// with RESILIENCE_<KIND>_DEFAULT_<FIELD> as the process-wide fallback, e.g.
// RESILIENCE_CIRCUIT_PAYMENTS_MAX_FAILURES=3.
package resilience
