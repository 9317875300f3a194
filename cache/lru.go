package cache

import "context"

// LRU is a capacity-bounded memoizer without expiry. It is a TTLLRU
// configured with NoExpiration.
type LRU[K comparable, V any] struct {
	c *TTLLRU[K, V]
}

// Info mirrors the counters of a plain LRU memoizer.
type Info struct {
	Capacity  int
	Len       int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// NewLRU creates an LRU memoizer holding at most capacity entries.
func NewLRU[K comparable, V any](capacity int) (*LRU[K, V], error) {
	c, err := New[K, V](Config{Capacity: capacity, TTL: NoExpiration})
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{c: c}, nil
}

// GetOrCompute returns the cached value for key or computes and stores it.
func (l *LRU[K, V]) GetOrCompute(ctx context.Context, key K, compute ComputeFunc[V]) (V, error) {
	return l.c.GetOrCompute(ctx, key, compute)
}

// Info returns the current counters.
func (l *LRU[K, V]) Info() Info {
	s := l.c.Stats()
	return Info{
		Capacity:  s.Capacity,
		Len:       s.Len,
		Hits:      s.Hits,
		Misses:    s.Misses,
		Evictions: s.Evictions,
	}
}

// Clear removes every entry.
func (l *LRU[K, V]) Clear() {
	l.c.Purge()
}
