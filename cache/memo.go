package cache

import "context"

// MemoFunc is a computation memoized by Memo.
type MemoFunc[V any] func(ctx context.Context, args Args) (V, error)

// Memo memoizes a function through a TTLLRU keyed by its arguments.
// It is an explicit instance held by the caller; nothing is registered
// globally.
type Memo[V any] struct {
	name  string
	fn    MemoFunc[V]
	store *TTLLRU[string, V]
	keyer Keyer
}

// NewMemo wraps fn. If keyer is nil, DefaultKeyer is used.
func NewMemo[V any](name string, fn MemoFunc[V], store *TTLLRU[string, V], keyer Keyer) (*Memo[V], error) {
	if store == nil {
		return nil, ErrNilCache
	}
	if fn == nil {
		return nil, ErrNilCompute
	}
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &Memo[V]{name: name, fn: fn, store: store, keyer: keyer}, nil
}

// Call returns the memoized result for args.
// On cache hit, fn is not called. Errors from fn are not cached.
// If no valid key can be derived, fn runs directly and nothing is cached.
func (m *Memo[V]) Call(ctx context.Context, args Args) (V, error) {
	key, err := m.keyer.Key(m.name, args)
	if err == nil {
		err = ValidateKey(key)
	}
	if err != nil {
		return m.fn(ctx, args)
	}

	return m.store.GetOrCompute(ctx, key, func(ctx context.Context) (V, error) {
		return m.fn(ctx, args)
	})
}

// Key returns the cache key Call would use for args.
func (m *Memo[V]) Key(args Args) (string, error) {
	key, err := m.keyer.Key(m.name, args)
	if err != nil {
		return "", err
	}
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// Name returns the memoized function's name.
func (m *Memo[V]) Name() string {
	return m.name
}

// Cache returns the backing cache.
func (m *Memo[V]) Cache() *TTLLRU[string, V] {
	return m.store
}
