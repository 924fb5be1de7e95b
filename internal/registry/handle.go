package registry

// ReadHandle is a short-lived, query-only view of a table, valid while the
// table read lock taken by Read is held. It intentionally has no way to reach
// an entity's lock or value; entity access goes through the guard maps the
// lock request produces.
type ReadHandle[K comparable, I1, I2, I3, I4, I5 any, V Indexed[K, I1, I2, I3, I4, I5]] struct {
	t *Table[K, I1, I2, I3, I4, I5, V]
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Contains(key K) bool {
	_, ok := h.t.getEntry(key)
	return ok
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Len() int {
	return h.t.entries.Len()
}

// Keys returns every primary key in ascending order.
func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Keys() []K {
	return h.t.keys()
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Index1(key K) (I1, bool) {
	e, ok := h.t.getEntry(key)
	if !ok {
		var zero I1
		return zero, false
	}
	return e.idx1, true
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Index2(key K) (I2, bool) {
	e, ok := h.t.getEntry(key)
	if !ok || !e.idx2.ok {
		var zero I2
		return zero, false
	}
	return e.idx2.value, true
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Index3(key K) (I3, bool) {
	e, ok := h.t.getEntry(key)
	if !ok || !e.idx3.ok {
		var zero I3
		return zero, false
	}
	return e.idx3.value, true
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Index4(key K) (I4, bool) {
	e, ok := h.t.getEntry(key)
	if !ok || !e.idx4.ok {
		var zero I4
		return zero, false
	}
	return e.idx4.value, true
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Index5(key K) (I5, bool) {
	e, ok := h.t.getEntry(key)
	if !ok || !e.idx5.ok {
		var zero I5
		return zero, false
	}
	return e.idx5.value, true
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) KeysByIndex1(value I1) []K {
	return h.t.idx1.keysExact(value)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) KeysByIndex2(value I2) []K {
	return h.t.idx2.keysExact(value)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) KeysByIndex3(value I3) []K {
	return h.t.idx3.keysExact(value)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) KeysByIndex4(value I4) []K {
	return h.t.idx4.keysExact(value)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) KeysByIndex5(value I5) []K {
	return h.t.idx5.keysExact(value)
}

// KeysByIndex1Range returns keys across every index value in [lo, hi],
// ordered by (index value, key). The other slots behave identically.
func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) KeysByIndex1Range(lo, hi I1) []K {
	return h.t.idx1.keysRange(lo, hi)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) KeysByIndex2Range(lo, hi I2) []K {
	return h.t.idx2.keysRange(lo, hi)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) KeysByIndex3Range(lo, hi I3) []K {
	return h.t.idx3.keysRange(lo, hi)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) KeysByIndex4Range(lo, hi I4) []K {
	return h.t.idx4.keysRange(lo, hi)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) KeysByIndex5Range(lo, hi I5) []K {
	return h.t.idx5.keysRange(lo, hi)
}

// Indices1 returns every distinct populated index value in ascending order.
func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Indices1() []I1 {
	return h.t.idx1.values()
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Indices2() []I2 {
	return h.t.idx2.values()
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Indices3() []I3 {
	return h.t.idx3.values()
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Indices4() []I4 {
	return h.t.idx4.values()
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Indices5() []I5 {
	return h.t.idx5.values()
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Indices1Range(lo, hi I1) []I1 {
	return h.t.idx1.valuesRange(lo, hi)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Indices2Range(lo, hi I2) []I2 {
	return h.t.idx2.valuesRange(lo, hi)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Indices3Range(lo, hi I3) []I3 {
	return h.t.idx3.valuesRange(lo, hi)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Indices4Range(lo, hi I4) []I4 {
	return h.t.idx4.valuesRange(lo, hi)
}

func (h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Indices5Range(lo, hi I5) []I5 {
	return h.t.idx5.valuesRange(lo, hi)
}

// WriteHandle is a short-lived view of a table under its exclusive write
// lock, produced by Write. Because no other thread can hold any table lock
// concurrently, the holder is the sole owner of every entity lock reachable
// from the table, so entity values are exposed directly.
type WriteHandle[K comparable, I1, I2, I3, I4, I5 any, V Indexed[K, I1, I2, I3, I4, I5]] struct {
	t *Table[K, I1, I2, I3, I4, I5, V]

	// The full query surface is promoted from the embedded read view.
	ReadHandle[K, I1, I2, I3, I4, I5, V]
}

func newWriteHandle[K comparable, I1, I2, I3, I4, I5 any, V Indexed[K, I1, I2, I3, I4, I5]](t *Table[K, I1, I2, I3, I4, I5, V]) *WriteHandle[K, I1, I2, I3, I4, I5, V] {
	return &WriteHandle[K, I1, I2, I3, I4, I5, V]{t: t, ReadHandle: ReadHandle[K, I1, I2, I3, I4, I5, V]{t: t}}
}

// Get returns direct mutable access to the entity's value. Mutating fields
// that feed the index tuple must go through UpdateIndices instead, or the
// secondary indices go stale.
func (h *WriteHandle[K, I1, I2, I3, I4, I5, V]) Get(key K) (*V, bool) {
	e, ok := h.t.getEntry(key)
	if !ok {
		return nil, false
	}
	return &e.lock.value, true
}

// Insert adds the entity under its own key and index tuple, wrapping it in a
// fresh lock. If the key was already present the previous lock is returned
// after its index membership has been fully cleared.
func (h *WriteHandle[K, I1, I2, I3, I4, I5, V]) Insert(value V) (*Locked[V], bool) {
	return h.t.insertLocked(NewLocked(value))
}

// InsertLocked reinserts a pre-wrapped lock, deriving the index tuple from
// the wrapped value's current state.
func (h *WriteHandle[K, I1, I2, I3, I4, I5, V]) InsertLocked(lock *Locked[V]) (*Locked[V], bool) {
	return h.t.insertLocked(lock)
}

// Remove deletes the key from the primary map and from every index bucket it
// belonged to. Removing an absent key returns false.
func (h *WriteHandle[K, I1, I2, I3, I4, I5, V]) Remove(key K) (*Locked[V], bool) {
	e, ok := h.t.removeEntry(key)
	if !ok {
		return nil, false
	}
	return e.lock, true
}

// UpdateIndices removes the entry, applies fn to the value, and reinserts it
// so every secondary index tracks the mutated index tuple. Returns false
// without calling fn when the key is absent.
func (h *WriteHandle[K, I1, I2, I3, I4, I5, V]) UpdateIndices(key K, fn func(value *V)) bool {
	e, ok := h.t.removeEntry(key)
	if !ok {
		return false
	}
	fn(&e.lock.value)
	h.t.insertLocked(e.lock)
	return true
}
