package cache

import (
	"fmt"
	"time"
)

// LockMode selects how GetOrCompute serializes callers.
type LockMode int

const (
	// LockWhole holds one lock across the whole lookup, compute and insert
	// sequence. At most one compute runs per cache at any time.
	LockWhole LockMode = iota

	// LockPerKey guards only the internal structures with the cache lock and
	// runs computes outside of it. Concurrent callers for the same key share
	// one compute; different keys compute in parallel.
	LockPerKey
)

// String returns the configuration name of the mode.
func (m LockMode) String() string {
	switch m {
	case LockWhole:
		return "whole"
	case LockPerKey:
		return "per-key"
	default:
		return "unknown"
	}
}

// ParseLockMode parses "whole" or "per-key". Empty means LockWhole.
func ParseLockMode(s string) (LockMode, error) {
	switch s {
	case "", "whole":
		return LockWhole, nil
	case "per-key", "perkey":
		return LockPerKey, nil
	default:
		return LockWhole, fmt.Errorf("cache: unknown lock mode %q", s)
	}
}

// Config configures a TTLLRU cache.
type Config struct {
	// Capacity is the maximum number of entries. Must be > 0.
	Capacity int

	// TTL is how long an entry stays fresh after insertion. Must be > 0,
	// or NoExpiration to disable expiry.
	TTL time.Duration

	// Locking selects the concurrency discipline.
	// Default: LockWhole
	Locking LockMode

	// Clock supplies the current time.
	// Default: SystemClock
	Clock Clock

	// Recorder receives hit/miss/eviction/compute events.
	// Default: no-op
	Recorder Recorder
}

// DefaultConfig returns the default cache configuration.
// Capacity: 128, TTL: 60s, Locking: LockWhole
func DefaultConfig() Config {
	return Config{
		Capacity: 128,
		TTL:      60 * time.Second,
		Locking:  LockWhole,
	}
}

// Validate checks capacity, ttl and lock mode.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return ErrZeroCapacity
	}
	if c.TTL <= 0 && c.TTL != NoExpiration {
		return fmt.Errorf("%w: got %s", ErrInvalidTTL, c.TTL)
	}
	if c.Locking != LockWhole && c.Locking != LockPerKey {
		return fmt.Errorf("cache: unknown lock mode %d", c.Locking)
	}
	return nil
}
