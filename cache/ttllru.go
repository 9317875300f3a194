package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrComputePanic marks a per-key flight whose compute panicked. The caller
// that ran the compute re-panics; callers waiting on it compute again.
var ErrComputePanic = errors.New("cache: compute panicked")

// TTLLRU is a bounded memoizing cache with LRU eviction and TTL expiry.
//
// Contract:
//   - Concurrency: safe for concurrent use. See LockMode for how computes
//     are serialized.
//   - Capacity: Len() <= Capacity() after every operation.
//   - Expiry: an entry inserted at t with ttl d is served for accesses in
//     [t, t+d) and is stale from t+d on. Stale entries are removed lazily,
//     only when that key is accessed.
//   - Errors: a failing compute inserts nothing and its error is returned
//     unchanged, only to the caller that ran it.
type TTLLRU[K comparable, V any] struct {
	mu       sync.Mutex
	store    map[K]*entry[K, V]
	recency  recencyList[K, V]
	flights  map[K]*flight[V]
	capacity int
	ttl      time.Duration
	locking  LockMode
	clock    Clock
	recorder Recorder

	hits          uint64
	misses        uint64
	evictions     uint64
	expirations   uint64
	computeErrors uint64
}

// flight is an in-progress per-key compute that later callers wait on.
type flight[V any] struct {
	wg  sync.WaitGroup
	val V
	err error
}

// New creates a cache from cfg. It fails with ErrZeroCapacity when
// cfg.Capacity is not positive and ErrInvalidTTL when cfg.TTL is neither
// positive nor NoExpiration.
func New[K comparable, V any](cfg Config) (*TTLLRU[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}

	c := &TTLLRU[K, V]{
		store:    make(map[K]*entry[K, V], cfg.Capacity),
		flights:  make(map[K]*flight[V]),
		capacity: cfg.Capacity,
		ttl:      cfg.TTL,
		locking:  cfg.Locking,
		clock:    cfg.Clock,
		recorder: cfg.Recorder,
	}
	c.recency.init()
	return c, nil
}

// GetOrCompute returns the fresh cached value for key, or runs compute,
// stores its result as the most recently used entry and returns it.
// A hit never runs compute.
func (c *TTLLRU[K, V]) GetOrCompute(ctx context.Context, key K, compute ComputeFunc[V]) (V, error) {
	if compute == nil {
		var zero V
		return zero, ErrNilCompute
	}
	if c.locking == LockPerKey {
		return c.getOrComputePerKey(ctx, key, compute)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.lookupLocked(ctx, key); ok {
		return v, nil
	}

	v, err := c.compute(ctx, compute)
	if err != nil {
		c.computeErrors++
		var zero V
		return zero, err
	}
	c.insertLocked(ctx, key, v)
	return v, nil
}

func (c *TTLLRU[K, V]) getOrComputePerKey(ctx context.Context, key K, compute ComputeFunc[V]) (V, error) {
	c.mu.Lock()
	if v, ok := c.lookupLocked(ctx, key); ok {
		c.mu.Unlock()
		return v, nil
	}
	for {
		f, ok := c.flights[key]
		if !ok {
			break
		}
		c.mu.Unlock()
		f.wg.Wait()
		if f.err == nil {
			return f.val, nil
		}
		// A failure belongs to the caller whose compute failed. Look again
		// and either join a newer flight, find its result or lead one.
		c.mu.Lock()
		if e, ok := c.store[key]; ok && !c.staleLocked(e) {
			c.recency.moveToBack(e)
			c.mu.Unlock()
			return e.value, nil
		}
	}

	// Registering the flight and later inserting while removing it both
	// happen under c.mu, so every caller that misses either joins this
	// flight or finds the inserted entry.
	f := &flight[V]{}
	f.wg.Add(1)
	c.flights[key] = f
	c.mu.Unlock()

	finished := false
	defer func() {
		if finished {
			return
		}
		r := recover()
		c.mu.Lock()
		delete(c.flights, key)
		c.mu.Unlock()
		f.err = fmt.Errorf("%w: %v", ErrComputePanic, r)
		f.wg.Done()
		if r != nil {
			panic(r)
		}
	}()

	v, err := c.compute(ctx, compute)

	c.mu.Lock()
	delete(c.flights, key)
	if err == nil {
		c.insertLocked(ctx, key, v)
	} else {
		c.computeErrors++
	}
	c.mu.Unlock()

	if err != nil {
		var zero V
		v = zero
	}
	f.val, f.err = v, err
	finished = true
	f.wg.Done()
	return v, err
}

// compute runs fn and records its duration and outcome.
func (c *TTLLRU[K, V]) compute(ctx context.Context, fn ComputeFunc[V]) (V, error) {
	start := time.Now()
	v, err := fn(ctx)
	c.recorder.RecordCompute(ctx, time.Since(start), err)
	return v, err
}

// lookupLocked returns a fresh value and promotes it, or removes a stale
// entry. It counts the access as a hit or a miss.
func (c *TTLLRU[K, V]) lookupLocked(ctx context.Context, key K) (V, bool) {
	if e, ok := c.store[key]; ok {
		if !c.staleLocked(e) {
			c.recency.moveToBack(e)
			c.hits++
			c.recorder.RecordHit(ctx)
			return e.value, true
		}
		c.removeLocked(e)
		c.expirations++
		c.recorder.RecordEviction(ctx, EvictExpired)
	}
	c.misses++
	c.recorder.RecordMiss(ctx)
	var zero V
	return zero, false
}

// staleLocked treats now >= expiresAt as expired.
func (c *TTLLRU[K, V]) staleLocked(e *entry[K, V]) bool {
	if c.ttl == NoExpiration {
		return false
	}
	return !c.clock.Now().Before(e.expiresAt)
}

// insertLocked stores a new most recently used entry, replacing any entry
// for the same key, then evicts at most one least recently used entry.
func (c *TTLLRU[K, V]) insertLocked(ctx context.Context, key K, value V) {
	if old, ok := c.store[key]; ok {
		c.removeLocked(old)
	}

	e := &entry[K, V]{key: key, value: value}
	if c.ttl != NoExpiration {
		e.expiresAt = c.clock.Now().Add(c.ttl)
	}
	c.store[key] = e
	c.recency.pushBack(e)

	if len(c.store) > c.capacity {
		oldest := c.recency.front()
		c.removeLocked(oldest)
		c.evictions++
		c.recorder.RecordEviction(ctx, EvictCapacity)
	}
}

func (c *TTLLRU[K, V]) removeLocked(e *entry[K, V]) {
	c.recency.remove(e)
	delete(c.store, e.key)
}

// Get returns a fresh cached value without computing. A hit promotes the
// key; a stale entry is removed.
func (c *TTLLRU[K, V]) Get(ctx context.Context, key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(ctx, key)
}

// Peek returns a fresh cached value without promoting it or counting the
// access. Stale entries are reported as absent but left in place.
func (c *TTLLRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.store[key]; ok && !c.staleLocked(e) {
		return e.value, true
	}
	var zero V
	return zero, false
}

// Delete removes key. It reports whether an entry was present.
func (c *TTLLRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[key]
	if !ok {
		return false
	}
	c.removeLocked(e)
	return true
}

// Purge removes every entry. Counters are kept.
func (c *TTLLRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.store)
	c.recency.init()
}

// Len returns the number of stored entries, stale ones included.
func (c *TTLLRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// Capacity returns the configured maximum entry count.
func (c *TTLLRU[K, V]) Capacity() int {
	return c.capacity
}

// Locking returns the configured lock mode.
func (c *TTLLRU[K, V]) Locking() LockMode {
	return c.locking
}

// TTL returns the configured freshness window.
func (c *TTLLRU[K, V]) TTL() time.Duration {
	return c.ttl
}

// Stats returns a snapshot. The Recency slice is a copy owned by the caller.
func (c *TTLLRU[K, V]) Stats() Stats[K] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats[K]{
		Capacity:      c.capacity,
		Len:           len(c.store),
		TTL:           c.ttl,
		Recency:       c.recency.keys(),
		Hits:          c.hits,
		Misses:        c.misses,
		Evictions:     c.evictions,
		Expirations:   c.expirations,
		ComputeErrors: c.computeErrors,
	}
}
