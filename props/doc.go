// Package props provides a concurrency-safe, lazily populated cache of
// immutable property bundles, keyed by strategy-derived cache keys.
//
// A Cache guarantees that at most one bundle is ever published per cache key
// for the life of the process: concurrent first-time callers may each build a
// candidate, but exactly one candidate wins the install and every caller
// converges on it. Strategies that derive an empty cache key bypass the
// cache entirely for that call.
package props
