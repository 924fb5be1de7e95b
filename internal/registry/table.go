package registry

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/google/btree"
)

const btreeDegree = 32

// Comparator defines a total order over keys or index values. Secondary
// index values must be totally ordered so range queries are well defined.
type Comparator[T any] func(a, b T) int

// Ordered returns a Comparator for any natively ordered type.
func Ordered[T cmp.Ordered]() Comparator[T] {
	return cmp.Compare[T]
}

// NoIndex marks an unused secondary index slot.
type NoIndex struct{}

// CompareNoIndex satisfies the Comparator contract for unused slots.
func CompareNoIndex(a, b NoIndex) int {
	return 0
}

// Indexed is implemented by every entity stored in a Table. Guid is the
// primary key. Index1 is always populated; slots 2 through 5 are optional
// and report presence through their second return value.
type Indexed[K comparable, I1, I2, I3, I4, I5 any] interface {
	Guid() K
	Index1() I1
	Index2() (I2, bool)
	Index3() (I3, bool)
	Index4() (I4, bool)
	Index5() (I5, bool)
}

// Comparators supplies the orderings a Table needs for its primary map and
// each secondary index slot. Use Ordered for primitive slots and
// CompareNoIndex for unused ones.
type Comparators[K comparable, I1, I2, I3, I4, I5 any] struct {
	Key    Comparator[K]
	Index1 Comparator[I1]
	Index2 Comparator[I2]
	Index3 Comparator[I3]
	Index4 Comparator[I4]
	Index5 Comparator[I5]
}

type optional[T any] struct {
	value T
	ok    bool
}

type entry[K comparable, I1, I2, I3, I4, I5 any, V Indexed[K, I1, I2, I3, I4, I5]] struct {
	key  K
	lock *Locked[V]
	idx1 I1
	idx2 optional[I2]
	idx3 optional[I3]
	idx4 optional[I4]
	idx5 optional[I5]
}

// bucket holds the set of keys sharing one secondary index value. Buckets
// are removed as soon as they empty so index iteration never yields a value
// with no members.
type bucket[I any, K comparable] struct {
	value I
	keys  map[K]struct{}
}

type tableIndex[I any, K comparable] struct {
	slot    int
	cmp     Comparator[I]
	cmpKey  Comparator[K]
	buckets *btree.BTreeG[*bucket[I, K]]
}

func newTableIndex[I any, K comparable](slot int, cmpIdx Comparator[I], cmpKey Comparator[K]) *tableIndex[I, K] {
	return &tableIndex[I, K]{
		slot:   slot,
		cmp:    cmpIdx,
		cmpKey: cmpKey,
		buckets: btree.NewG(btreeDegree, func(a, b *bucket[I, K]) bool {
			return cmpIdx(a.value, b.value) < 0
		}),
	}
}

func (ix *tableIndex[I, K]) add(value I, key K) {
	b, ok := ix.buckets.Get(&bucket[I, K]{value: value})
	if !ok {
		b = &bucket[I, K]{value: value, keys: make(map[K]struct{})}
		ix.buckets.ReplaceOrInsert(b)
	}
	b.keys[key] = struct{}{}
}

// remove drops key from the bucket it was recorded under. A missing bucket
// or missing membership means the table's own bookkeeping is corrupt, which
// cannot be recovered from.
func (ix *tableIndex[I, K]) remove(value I, key K) {
	b, ok := ix.buckets.Get(&bucket[I, K]{value: value})
	if !ok {
		panic(fmt.Sprintf("registry: index slot %d has no bucket for a stored index value", ix.slot))
	}
	if _, member := b.keys[key]; !member {
		panic(fmt.Sprintf("registry: key missing from index slot %d bucket it was recorded under", ix.slot))
	}
	delete(b.keys, key)
	if len(b.keys) == 0 {
		ix.buckets.Delete(b)
	}
}

func (ix *tableIndex[I, K]) sortedKeys(b *bucket[I, K]) []K {
	out := make([]K, 0, len(b.keys))
	for k := range b.keys {
		out = append(out, k)
	}
	slices.SortFunc(out, ix.cmpKey)
	return out
}

func (ix *tableIndex[I, K]) keysExact(value I) []K {
	b, ok := ix.buckets.Get(&bucket[I, K]{value: value})
	if !ok {
		return nil
	}
	return ix.sortedKeys(b)
}

// keysRange returns keys across every index value in [lo, hi], ordered by
// (index value, key).
func (ix *tableIndex[I, K]) keysRange(lo, hi I) []K {
	var out []K
	ix.buckets.AscendGreaterOrEqual(&bucket[I, K]{value: lo}, func(b *bucket[I, K]) bool {
		if ix.cmp(b.value, hi) > 0 {
			return false
		}
		out = append(out, ix.sortedKeys(b)...)
		return true
	})
	return out
}

func (ix *tableIndex[I, K]) values() []I {
	out := make([]I, 0, ix.buckets.Len())
	ix.buckets.Ascend(func(b *bucket[I, K]) bool {
		out = append(out, b.value)
		return true
	})
	return out
}

func (ix *tableIndex[I, K]) valuesRange(lo, hi I) []I {
	var out []I
	ix.buckets.AscendGreaterOrEqual(&bucket[I, K]{value: lo}, func(b *bucket[I, K]) bool {
		if ix.cmp(b.value, hi) > 0 {
			return false
		}
		out = append(out, b.value)
		return true
	})
	return out
}

// Table is an ordered map from a primary key to a per-entity lock and the
// entity's index tuple, plus up to five ordered secondary indices mapping an
// index value to the set of keys sharing it. The table's own reader-writer
// lock guards membership and index structure; it is only ever taken through
// Read and Write, which also decide how the per-entity locks are acquired.
type Table[K comparable, I1, I2, I3, I4, I5 any, V Indexed[K, I1, I2, I3, I4, I5]] struct {
	mu      sync.RWMutex
	cmpKey  Comparator[K]
	entries *btree.BTreeG[*entry[K, I1, I2, I3, I4, I5, V]]
	idx1    *tableIndex[I1, K]
	idx2    *tableIndex[I2, K]
	idx3    *tableIndex[I3, K]
	idx4    *tableIndex[I4, K]
	idx5    *tableIndex[I5, K]
}

// NewTable creates an empty table with the given key and index orderings.
func NewTable[K comparable, I1, I2, I3, I4, I5 any, V Indexed[K, I1, I2, I3, I4, I5]](cmps Comparators[K, I1, I2, I3, I4, I5]) *Table[K, I1, I2, I3, I4, I5, V] {
	return &Table[K, I1, I2, I3, I4, I5, V]{
		cmpKey: cmps.Key,
		entries: btree.NewG(btreeDegree, func(a, b *entry[K, I1, I2, I3, I4, I5, V]) bool {
			return cmps.Key(a.key, b.key) < 0
		}),
		idx1: newTableIndex(1, cmps.Index1, cmps.Key),
		idx2: newTableIndex(2, cmps.Index2, cmps.Key),
		idx3: newTableIndex(3, cmps.Index3, cmps.Key),
		idx4: newTableIndex(4, cmps.Index4, cmps.Key),
		idx5: newTableIndex(5, cmps.Index5, cmps.Key),
	}
}

// The unexported accessors below assume the caller holds the table lock in
// the appropriate mode; Read and Write are the only entry points.

func (t *Table[K, I1, I2, I3, I4, I5, V]) getEntry(key K) (*entry[K, I1, I2, I3, I4, I5, V], bool) {
	return t.entries.Get(&entry[K, I1, I2, I3, I4, I5, V]{key: key})
}

func (t *Table[K, I1, I2, I3, I4, I5, V]) getLock(key K) (*Locked[V], bool) {
	e, ok := t.getEntry(key)
	if !ok {
		return nil, false
	}
	return e.lock, true
}

func (t *Table[K, I1, I2, I3, I4, I5, V]) keys() []K {
	out := make([]K, 0, t.entries.Len())
	t.entries.Ascend(func(e *entry[K, I1, I2, I3, I4, I5, V]) bool {
		out = append(out, e.key)
		return true
	})
	return out
}

func (t *Table[K, I1, I2, I3, I4, I5, V]) insertLocked(lock *Locked[V]) (*Locked[V], bool) {
	v := lock.value
	key := v.Guid()
	e := &entry[K, I1, I2, I3, I4, I5, V]{key: key, lock: lock, idx1: v.Index1()}
	e.idx2.value, e.idx2.ok = v.Index2()
	e.idx3.value, e.idx3.ok = v.Index3()
	e.idx4.value, e.idx4.ok = v.Index4()
	e.idx5.value, e.idx5.ok = v.Index5()

	// Clear the previous entry's index membership first so a reinsert under
	// the same key never leaves stale buckets behind.
	prev, replaced := t.removeEntry(key)

	t.entries.ReplaceOrInsert(e)
	t.idx1.add(e.idx1, key)
	if e.idx2.ok {
		t.idx2.add(e.idx2.value, key)
	}
	if e.idx3.ok {
		t.idx3.add(e.idx3.value, key)
	}
	if e.idx4.ok {
		t.idx4.add(e.idx4.value, key)
	}
	if e.idx5.ok {
		t.idx5.add(e.idx5.value, key)
	}

	if !replaced {
		return nil, false
	}
	return prev.lock, true
}

func (t *Table[K, I1, I2, I3, I4, I5, V]) removeEntry(key K) (*entry[K, I1, I2, I3, I4, I5, V], bool) {
	e, ok := t.entries.Delete(&entry[K, I1, I2, I3, I4, I5, V]{key: key})
	if !ok {
		return nil, false
	}
	t.idx1.remove(e.idx1, key)
	if e.idx2.ok {
		t.idx2.remove(e.idx2.value, key)
	}
	if e.idx3.ok {
		t.idx3.remove(e.idx3.value, key)
	}
	if e.idx4.ok {
		t.idx4.remove(e.idx4.value, key)
	}
	if e.idx5.ok {
		t.idx5.remove(e.idx5.value, key)
	}
	return e, true
}
