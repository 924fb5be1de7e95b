package registry

import "sync"

// Locked wraps a single entity behind its own reader-writer lock. The table
// owns the entity; callers only ever see the value through a guard handed out
// by Read or Write, or directly through a table write handle.
type Locked[V any] struct {
	mu    sync.RWMutex
	value V
}

// NewLocked wraps value in its own lock, ready for InsertLocked.
func NewLocked[V any](value V) *Locked[V] {
	return &Locked[V]{value: value}
}

func (l *Locked[V]) rLock() *V {
	l.mu.RLock()
	return &l.value
}

func (l *Locked[V]) rUnlock() {
	l.mu.RUnlock()
}

func (l *Locked[V]) lock() *V {
	l.mu.Lock()
	return &l.value
}

func (l *Locked[V]) unlock() {
	l.mu.Unlock()
}
