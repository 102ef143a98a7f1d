// Package cache defines the pattern-based cache-invalidation hook the core
// calls after successful syncs and CLOB/expiration state changes. The
// query API, response cache, and rate limiter that actually consume these
// invalidations are out of scope; only the interface and a real, thin
// default implementation live here.
package cache

import "context"

// Invalidator deletes every cached key matching a glob pattern.
// Patterns are the literal strings the core emits: "*GET:/markets*",
// "*GET:/events*", "*GET:/stats*".
type Invalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// Noop is used when no cache backend is configured. Logged once at
// startup, never again.
type Noop struct{}

func (Noop) Invalidate(context.Context, string) error { return nil }
