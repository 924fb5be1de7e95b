package registry

import "slices"

// Request declares the entity locks a continuation needs: ReadKeys under
// shared access, WriteKeys under exclusive access, and Run to execute once
// the guards are held. A key listed in both sets is locked for writing.
type Request[K comparable, I1, I2, I3, I4, I5 any, V Indexed[K, I1, I2, I3, I4, I5], R any] struct {
	ReadKeys  []K
	WriteKeys []K
	Run       func(h *ReadHandle[K, I1, I2, I3, I4, I5, V], reads *Guards[K, V], writes *Guards[K, V]) R
}

// Read acquires the table lock in read mode, lets plan inspect the table to
// decide which keys it needs, then acquires the requested entity locks in
// ascending key order and invokes the request's continuation with the guard
// maps. Sorting before acquisition gives every caller the same global
// acquisition order, which precludes circular waits between overlapping
// requests. All locks are released when Read returns, on every exit path.
//
// Re-entering Read or Write on the same table from inside the continuation
// self-deadlocks; that is a caller responsibility, not a guarded condition.
func Read[K comparable, I1, I2, I3, I4, I5 any, V Indexed[K, I1, I2, I3, I4, I5], R any](
	t *Table[K, I1, I2, I3, I4, I5, V],
	plan func(h *ReadHandle[K, I1, I2, I3, I4, I5, V]) Request[K, I1, I2, I3, I4, I5, V, R],
) R {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h := &ReadHandle[K, I1, I2, I3, I4, I5, V]{t: t}
	req := plan(h)

	combined := make([]K, 0, len(req.ReadKeys)+len(req.WriteKeys))
	combined = append(combined, req.ReadKeys...)
	combined = append(combined, req.WriteKeys...)
	slices.SortFunc(combined, t.cmpKey)
	combined = slices.CompactFunc(combined, func(a, b K) bool { return t.cmpKey(a, b) == 0 })

	writeSet := make(map[K]struct{}, len(req.WriteKeys))
	for _, k := range req.WriteKeys {
		writeSet[k] = struct{}{}
	}

	reads := newGuards[K, V](len(req.ReadKeys))
	writes := newGuards[K, V](len(req.WriteKeys))

	var held []func()
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}()

	for _, key := range combined {
		lock, ok := t.getLock(key)
		if !ok {
			// Absent keys are silently skipped; the continuation checks
			// guard-map membership.
			continue
		}
		if _, write := writeSet[key]; write {
			writes.put(key, lock.lock())
			held = append(held, lock.unlock)
		} else {
			reads.put(key, lock.rLock())
			held = append(held, lock.rUnlock)
		}
	}

	return req.Run(h, reads, writes)
}

// Write acquires the table lock in write mode and invokes fn with the write
// handle. The write-lock holder is provably the sole owner of every entity
// in the table, so no per-entity locking happens on this path.
func Write[K comparable, I1, I2, I3, I4, I5 any, V Indexed[K, I1, I2, I3, I4, I5], R any](
	t *Table[K, I1, I2, I3, I4, I5, V],
	fn func(h *WriteHandle[K, I1, I2, I3, I4, I5, V]) R,
) R {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(newWriteHandle(t))
}
