package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a derived memo key.
const MaxKeyLength = 512

// NoExpiration disables TTL expiration. Entries then leave the cache only
// through LRU eviction or explicit deletion.
const NoExpiration time.Duration = -1

// Sentinel errors for cache operations.
var (
	ErrZeroCapacity = errors.New("cache: capacity must be greater than zero")
	ErrInvalidTTL   = errors.New("cache: ttl must be greater than zero")
	ErrNilCompute   = errors.New("cache: compute function is nil")
	ErrNilCache     = errors.New("cache: cache is nil")
	ErrInvalidKey   = errors.New("cache: key is invalid")
	ErrKeyTooLong   = errors.New("cache: key exceeds max length")
)

// ComputeFunc produces the value for a missing or stale key.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// EvictReason says why an entry left the cache.
type EvictReason int

const (
	// EvictCapacity means the entry was the least recently used one when an
	// insertion pushed the cache over capacity.
	EvictCapacity EvictReason = iota
	// EvictExpired means the entry was found stale on access.
	EvictExpired
)

// String returns the metric label for the reason.
func (r EvictReason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Recorder receives cache events for instrumentation.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods are called while the cache lock may be held; they must
// return quickly and must not call back into the cache.
// - Errors: implementations must not panic.
type Recorder interface {
	RecordHit(ctx context.Context)
	RecordMiss(ctx context.Context)
	RecordEviction(ctx context.Context, reason EvictReason)
	RecordCompute(ctx context.Context, duration time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordHit(context.Context)                          {}
func (nopRecorder) RecordMiss(context.Context)                         {}
func (nopRecorder) RecordEviction(context.Context, EvictReason)        {}
func (nopRecorder) RecordCompute(context.Context, time.Duration, error) {}

// Stats is a point-in-time snapshot of a cache.
// Recency lists keys from least to most recently used.
type Stats[K comparable] struct {
	Capacity      int
	Len           int
	TTL           time.Duration
	Recency       []K
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	Expirations   uint64
	ComputeErrors uint64
}

// ValidateKey checks if a derived key is usable as a memo key.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
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
