// Package cache provides thread-safe memoizing caches.
//
// TTLLRU bounds memory by entry count (least recently used entries are
// evicted first) and staleness by a fixed TTL checked lazily on access.
// LRU is the same cache without expiry. Memo wraps a function so calls with
// equivalent arguments share one cached result, using SHA-256 key
// derivation over canonicalized arguments.
//
// By default one lock spans lookup, compute and insert, so at most one
// compute runs per cache at a time. LockPerKey runs unrelated keys in
// parallel while still computing each key at most once at a time.
package cache
