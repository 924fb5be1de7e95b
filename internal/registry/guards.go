package registry

import "iter"

// Guards is an ordered map of held entity guards, keyed by primary key in
// ascending order so iteration is deterministic. A requested key that was
// absent from the table produces no guard; callers must check membership.
// Guard pointers are only valid until the continuation returns. Pointers in a
// read guard map are held under shared entity locks; mutating through one is
// a contract violation and a data race.
type Guards[K comparable, V any] struct {
	keys []K
	vals map[K]*V
}

func newGuards[K comparable, V any](capacity int) *Guards[K, V] {
	return &Guards[K, V]{vals: make(map[K]*V, capacity)}
}

// put appends in key order; the enforce step acquires in ascending key order
// so insertion order is already sorted.
func (g *Guards[K, V]) put(key K, value *V) {
	g.keys = append(g.keys, key)
	g.vals[key] = value
}

func (g *Guards[K, V]) Len() int {
	return len(g.keys)
}

func (g *Guards[K, V]) Contains(key K) bool {
	_, ok := g.vals[key]
	return ok
}

// Get returns the guarded entity. Mutate through the pointer only when the
// key was requested for writing.
func (g *Guards[K, V]) Get(key K) (*V, bool) {
	v, ok := g.vals[key]
	return v, ok
}

// Keys returns the guarded keys in ascending order.
func (g *Guards[K, V]) Keys() []K {
	return g.keys
}

// All iterates guards in ascending key order.
func (g *Guards[K, V]) All() iter.Seq2[K, *V] {
	return func(yield func(K, *V) bool) {
		for _, k := range g.keys {
			if !yield(k, g.vals[k]) {
				return
			}
		}
	}
}
