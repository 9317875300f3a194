package fetch

import (
	"context"
	"errors"

	"github.com/jonwraymond/memocache/cache"
)

// Cached serves repeated fetches of a URL from a cache. Failures are never
// cached, so the next call retries.
type Cached struct {
	next  Fetcher
	store *cache.TTLLRU[string, Content]
}

// NewCached wraps next with store. The store must use cache.LockPerKey:
// a LockWhole store holds its lock across the network call and All would
// fetch one URL at a time.
func NewCached(next Fetcher, store *cache.TTLLRU[string, Content]) (*Cached, error) {
	if next == nil {
		return nil, errors.New("fetch: nil fetcher")
	}
	if store == nil {
		return nil, cache.ErrNilCache
	}
	if store.Locking() != cache.LockPerKey {
		return nil, ErrWholeLockStore
	}
	return &Cached{next: next, store: store}, nil
}

// Fetch returns the cached content for url or fetches and caches it.
func (c *Cached) Fetch(ctx context.Context, url string) (Content, error) {
	return c.store.GetOrCompute(ctx, url, func(ctx context.Context) (Content, error) {
		return c.next.Fetch(ctx, url)
	})
}

// Cache returns the underlying cache.
func (c *Cached) Cache() *cache.TTLLRU[string, Content] {
	return c.store
}

var _ Fetcher = (*Cached)(nil)
