package tree

import (
	"github.com/arrowlake/mozt/internal/env"
	"github.com/arrowlake/mozt/internal/generics"
)

// edgeMap is an append-only map keyed by env.Value using Hash()+Equal()
// rather than Go's native comparable-key maps, generalizing the teacher
// repository's internal/generics.Set (which requires a comparable key
// type) to keys whose equality an adapter to an external environment
// defines itself. Callers are responsible for holding the owning node's
// lock around every call — edgeMap has no locking of its own.
type edgeMap[V any] struct {
	buckets map[uint64][]edgeEntry[V]
	n       int
}

type edgeEntry[V any] struct {
	key env.Value
	val V
}

func newEdgeMap[V any]() *edgeMap[V] {
	return &edgeMap[V]{buckets: make(map[uint64][]edgeEntry[V])}
}

func (m *edgeMap[V]) get(key env.Value) (V, bool) {
	for _, e := range m.buckets[key.Hash()] {
		if e.key.Equal(key) {
			return e.val, true
		}
	}
	var zero V
	return zero, false
}

// set inserts key->val if key is absent, and is a no-op otherwise: the
// framework's children maps are append-only, a child is never replaced
// once inserted (spec invariant).
func (m *edgeMap[V]) set(key env.Value, val V) {
	h := key.Hash()
	for _, e := range m.buckets[h] {
		if e.key.Equal(key) {
			return
		}
	}
	m.buckets[h] = append(m.buckets[h], edgeEntry[V]{key, val})
	m.n++
}

func (m *edgeMap[V]) len() int { return m.n }

// each iterates every entry in deterministic hash-bucket order (via
// generics.SortedKeys, adapted from the teacher's own generics package),
// so two runs over an unchanged edgeMap visit entries identically even
// though Go's native map iteration does not guarantee that.
func (m *edgeMap[V]) each(fn func(env.Value, V)) {
	for h := range generics.SortedKeys(m.buckets) {
		for _, e := range m.buckets[h] {
			fn(e.key, e.val)
		}
	}
}
