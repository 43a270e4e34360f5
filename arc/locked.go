package arc

import "sync"

// Locked is a value guarded by its own mutex. It is the simplest way to
// satisfy WithShared: every holder of the cell locks the value, not the cell.
//
//	c := arc.New(arc.Locked[[]string]{}, arc.WithShared())
//	c.MutUnchecked().With(func(v *[]string) { *v = append(*v, "x") })
type Locked[T any] struct {
	mu sync.Mutex
	v  T
}

// NewLocked returns a Locked holding v.
func NewLocked[T any](v T) *Locked[T] {
	return &Locked[T]{v: v}
}

// Lock implements sync.Locker.
func (l *Locked[T]) Lock() {
	l.mu.Lock()
}

// Unlock implements sync.Locker.
func (l *Locked[T]) Unlock() {
	l.mu.Unlock()
}

// With runs fn with the lock held.
func (l *Locked[T]) With(fn func(v *T)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.v)
}

// Load returns a copy of the value.
func (l *Locked[T]) Load() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.v
}

// Store replaces the value.
func (l *Locked[T]) Store(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.v = v
}
