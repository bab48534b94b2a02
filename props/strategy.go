package props

import (
	"context"
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a derived cache key.
const MaxKeyLength = 512

// Sentinel errors for property cache operations.
var (
	ErrNilCache     = errors.New("props: cache is nil")
	ErrNilStrategy  = errors.New("props: no strategy available")
	ErrNilConstruct = errors.New("props: strategy has no construct function")
	ErrInvalidKey   = errors.New("props: cache key is invalid")
	ErrKeyTooLong   = errors.New("props: cache key exceeds max length")
)

// Strategy supplies cache-key derivation and bundle construction for one
// property-bundle kind.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - CacheKey: returning "" disables caching for that call.
// - Construct: must return a bundle that is never mutated after it is
//   returned. Unless the owning cache deduplicates construction, Construct
//   may run more than once per key under contention, with all results but
//   one discarded; it must not have irreversible side effects.
type Strategy[I any, O comparable, B any] interface {
	// CacheKey derives the cache key for id and overrides. Identical keys
	// share a cache slot even when derived from distinct identities.
	CacheKey(id I, overrides O) string

	// DefaultOverrides returns the overrides applied when the caller
	// supplies the zero value (typically a nil pointer).
	DefaultOverrides() O

	// Construct builds the property bundle for id with overrides applied.
	Construct(ctx context.Context, id I, overrides O) (B, error)
}

// StrategyFuncs adapts plain functions to the Strategy interface.
//
// A nil CacheKeyFunc derives no key, so every call bypasses the cache. A nil
// DefaultOverridesFunc yields the zero overrides value. ConstructFunc is
// required; calls without it fail with ErrNilConstruct.
type StrategyFuncs[I any, O comparable, B any] struct {
	CacheKeyFunc         func(id I, overrides O) string
	DefaultOverridesFunc func() O
	ConstructFunc        func(ctx context.Context, id I, overrides O) (B, error)
}

// CacheKey derives the cache key, or "" when no CacheKeyFunc is set.
func (s StrategyFuncs[I, O, B]) CacheKey(id I, overrides O) string {
	if s.CacheKeyFunc == nil {
		return ""
	}
	return s.CacheKeyFunc(id, overrides)
}

// DefaultOverrides returns the declared default overrides.
func (s StrategyFuncs[I, O, B]) DefaultOverrides() O {
	if s.DefaultOverridesFunc == nil {
		var zero O
		return zero
	}
	return s.DefaultOverridesFunc()
}

// Construct builds a bundle via ConstructFunc.
func (s StrategyFuncs[I, O, B]) Construct(ctx context.Context, id I, overrides O) (B, error) {
	if s.ConstructFunc == nil {
		var zero B
		return zero, ErrNilConstruct
	}
	return s.ConstructFunc(ctx, id, overrides)
}

// ValidateKey checks a non-empty derived cache key. Empty keys never reach
// validation; they bypass the cache instead.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
