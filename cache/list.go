package cache

import "time"

// entry is both the stored value and its node in the recency list.
// The key is kept on the node because eviction starts from the list.
type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time

	prev, next *entry[K, V]
}

// recencyList is an intrusive circular doubly-linked list with a sentinel.
// root.next is the least recently used entry, root.prev the most recent.
type recencyList[K comparable, V any] struct {
	root entry[K, V]
	len  int
}

func (l *recencyList[K, V]) init() {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
}

// front returns the least recently used entry, or nil if empty.
func (l *recencyList[K, V]) front() *entry[K, V] {
	if l.len == 0 {
		return nil
	}
	return l.root.next
}

// pushBack appends e as the most recently used entry.
func (l *recencyList[K, V]) pushBack(e *entry[K, V]) {
	at := l.root.prev
	e.prev = at
	e.next = &l.root
	at.next = e
	l.root.prev = e
	l.len++
}

func (l *recencyList[K, V]) remove(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
	l.len--
}

// moveToBack promotes e to most recently used.
func (l *recencyList[K, V]) moveToBack(e *entry[K, V]) {
	if l.root.prev == e {
		return
	}
	l.remove(e)
	l.pushBack(e)
}

// keys copies the keys from least to most recently used.
func (l *recencyList[K, V]) keys() []K {
	out := make([]K, 0, l.len)
	for e := l.root.next; e != &l.root; e = e.next {
		out = append(out, e.key)
	}
	return out
}
