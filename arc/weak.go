package arc

import (
	"fmt"
	"sync/atomic"

	"github.com/wippyai/rcell"
	"github.com/wippyai/rcell/block"
)

// Weak is a non-owning observer. It keeps the control block, not the value,
// alive and can try to become a Strong handle.
//
// The zero Weak is empty: it references no block and never upgrades.
// A released Weak is empty as well.
type Weak[T any] struct {
	b atomic.Pointer[block.Block[T]]
}

// NewWeak returns an empty weak handle. Nothing is allocated.
func NewWeak[T any]() *Weak[T] {
	return &Weak[T]{}
}

func wrapWeak[T any](b *block.Block[T]) *Weak[T] {
	w := &Weak[T]{}
	w.b.Store(b)
	return w
}

// Clone returns another weak handle to the same block. Empty stays empty.
func (w *Weak[T]) Clone() *Weak[T] {
	b := w.b.Load()
	if b == nil {
		return NewWeak[T]()
	}
	b.IncWeak()
	return wrapWeak(b)
}

// Upgrade returns a new strong handle if the value is still alive.
// The check and the increment are one atomic step, so a value being torn
// down is never handed out again.
func (w *Weak[T]) Upgrade() (*Strong[T], bool) {
	b := w.b.Load()
	if b == nil || !b.TryIncStrong() {
		return nil, false
	}
	return wrapStrong(b), true
}

// Upgradable reports whether Upgrade would currently succeed.
// The answer may be stale by the time the caller acts on it.
func (w *Weak[T]) Upgradable() bool {
	b := w.b.Load()
	return b != nil && b.StrongCount() > 0
}

// Get upgrades w and returns a guard over the value.
// The guard holds a strong unit until its Release is called.
func (w *Weak[T]) Get() (*Guard[T], bool) {
	s, ok := w.Upgrade()
	if !ok {
		return nil, false
	}
	return &Guard[T]{s: s}, true
}

// EqualStrong reports whether w currently upgrades to a handle equal to s.
func (w *Weak[T]) EqualStrong(s *Strong[T]) bool {
	if s == nil {
		return false
	}
	u, ok := w.Upgrade()
	if !ok {
		return false
	}
	defer u.Release()
	return u.Equal(s)
}

// Equal reports whether w and other reference the same block.
// Two empty handles are equal.
func (w *Weak[T]) Equal(other *Weak[T]) bool {
	if other == nil {
		return false
	}
	return w.b.Load() == other.b.Load()
}

// StrongCount returns a snapshot of the strong count, 0 when empty.
func (w *Weak[T]) StrongCount() int {
	b := w.b.Load()
	if b == nil {
		return 0
	}
	return b.StrongCount()
}

// WeakCount returns a snapshot of the number of weak handles.
// It is 0 when w is empty or when no strong handle remains.
func (w *Weak[T]) WeakCount() int {
	b := w.b.Load()
	if b == nil {
		return 0
	}
	return b.WeakCount()
}

// Counts returns both counts.
func (w *Weak[T]) Counts() rcell.Counts {
	return rcell.Counts{Strong: w.StrongCount(), Weak: w.WeakCount()}
}

// Identity returns the block address, or 0 when empty.
func (w *Weak[T]) Identity() rcell.Identity {
	b := w.b.Load()
	if b == nil {
		return 0
	}
	return b.Identity()
}

// Empty reports whether w references no block.
func (w *Weak[T]) Empty() bool {
	return w.b.Load() == nil
}

// IntoClaim moves the weak unit out of w into a claim and leaves w empty.
// An empty handle yields an empty weak claim.
func (w *Weak[T]) IntoClaim() Claim[T] {
	return Claim[T]{b: w.b.Swap(nil), kind: ClaimWeak}
}

// Release returns the weak unit and leaves w empty. If the value was
// already dropped and this was the last weak unit, the block is freed.
func (w *Weak[T]) Release() {
	if b := w.b.Swap(nil); b != nil {
		b.ReleaseWeak()
	}
}

func (w *Weak[T]) String() string {
	b := w.b.Load()
	if b == nil {
		return fmt.Sprintf("Weak[%s]{empty}", block.TypeName[T]())
	}
	return fmt.Sprintf("Weak[%s]{id=%d at %s, strong=%d, weak=%d}",
		b.GoType(), b.ID(), b.Identity(), b.StrongCount(), b.WeakCount())
}
