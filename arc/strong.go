package arc

import (
	"fmt"
	"sync/atomic"

	"github.com/wippyai/rcell"
	"github.com/wippyai/rcell/block"
	"github.com/wippyai/rcell/errors"
)

// Strong is an owning handle. While it is unreleased the value is alive.
//
// Each *Strong owns exactly one strong unit. Share ownership with Clone,
// never by copying the struct. Release returns the unit; releasing the last
// one drops the value.
type Strong[T any] struct {
	b atomic.Pointer[block.Block[T]]
}

// New allocates a control block holding v and returns its first strong handle.
//
// Allocation failure is fatal: New panics with an *errors.Error of kind
// allocation. With WithShared, New panics unless T synchronizes itself.
func New[T any](v T, opts ...Option) *Strong[T] {
	o := buildOptions(opts)
	if o.shared && !lockable[T]() {
		panic(errors.New(errors.PhaseHandle, errors.KindInvalidInput).
			Path("New").
			GoType(block.TypeName[T]()).
			Detail("shared cells need a value implementing sync.Locker").
			Build())
	}

	b, err := block.New(v, o.alloc, o.shared)
	if err != nil {
		panic(err)
	}
	return wrapStrong(b)
}

// Default allocates a cell holding the zero value of T.
func Default[T any](opts ...Option) *Strong[T] {
	var zero T
	return New(zero, opts...)
}

func wrapStrong[T any](b *block.Block[T]) *Strong[T] {
	s := &Strong[T]{}
	s.b.Store(b)
	return s
}

func (s *Strong[T]) block(op string) *block.Block[T] {
	b := s.b.Load()
	if b == nil {
		panic(errors.Released(op, block.TypeName[T]()))
	}
	return b
}

// Clone returns a new strong handle to the same block.
func (s *Strong[T]) Clone() *Strong[T] {
	b := s.block("Clone")
	b.IncStrong()
	return wrapStrong(b)
}

// Downgrade returns a weak handle to the same block.
func (s *Strong[T]) Downgrade() *Weak[T] {
	b := s.block("Downgrade")
	b.IncWeak()
	return wrapWeak(b)
}

// MutUnchecked returns a pointer to the shared value.
//
// The pointer is not exclusive: every strong handle, and every weak handle
// that upgrades, can obtain the same pointer at the same time. No locking is
// performed. Callers must ensure single-writer access themselves, or store a
// value type that synchronizes internally (see Locked).
//
// The pointer is valid only while s, or another strong handle to the same
// block, is unreleased.
func (s *Strong[T]) MutUnchecked() *T {
	return s.block("MutUnchecked").Value()
}

// Load returns a copy of the value. Same aliasing caveat as MutUnchecked.
func (s *Strong[T]) Load() T {
	return *s.block("Load").Value()
}

// Set overwrites the value in place. Same aliasing caveat as MutUnchecked.
func (s *Strong[T]) Set(v T) {
	*s.block("Set").Value() = v
}

// Equal reports whether s and other reference the same block.
// A released handle equals nothing.
func (s *Strong[T]) Equal(other *Strong[T]) bool {
	if other == nil {
		return false
	}
	b := s.b.Load()
	return b != nil && b == other.b.Load()
}

// EqualWeak reports whether w currently upgrades to a handle equal to s.
// The temporary strong unit is released before returning.
func (s *Strong[T]) EqualWeak(w *Weak[T]) bool {
	if w == nil {
		return false
	}
	u, ok := w.Upgrade()
	if !ok {
		return false
	}
	defer u.Release()
	return s.Equal(u)
}

// StrongCount returns a snapshot of the strong count. It is racy under
// concurrent use and meant for diagnostics.
func (s *Strong[T]) StrongCount() int {
	return s.block("StrongCount").StrongCount()
}

// WeakCount returns a snapshot of the number of weak handles.
func (s *Strong[T]) WeakCount() int {
	return s.block("WeakCount").WeakCount()
}

// Counts returns both counts.
func (s *Strong[T]) Counts() rcell.Counts {
	return s.block("Counts").Counts()
}

// Identity returns the block address without affecting any count.
func (s *Strong[T]) Identity() rcell.Identity {
	return s.block("Identity").Identity()
}

// Shared reports whether the cell was created WithShared.
func (s *Strong[T]) Shared() bool {
	return s.block("Shared").Shared()
}

// IntoClaim moves the strong unit out of s into a claim. s is released
// afterwards; the unit now belongs to whoever holds the claim.
func (s *Strong[T]) IntoClaim() Claim[T] {
	b := s.b.Swap(nil)
	if b == nil {
		panic(errors.Released("IntoClaim", block.TypeName[T]()))
	}
	return Claim[T]{b: b, kind: ClaimStrong}
}

// Release returns the strong unit. The last release drops the value.
// Releasing an already released handle does nothing.
func (s *Strong[T]) Release() {
	if b := s.b.Swap(nil); b != nil {
		b.ReleaseStrong()
	}
}

// Released reports whether s no longer owns a unit.
func (s *Strong[T]) Released() bool {
	return s.b.Load() == nil
}

func (s *Strong[T]) String() string {
	b := s.b.Load()
	if b == nil {
		return fmt.Sprintf("Strong[%s]{released}", block.TypeName[T]())
	}
	return fmt.Sprintf("Strong[%s]{id=%d at %s, strong=%d, weak=%d}",
		b.GoType(), b.ID(), b.Identity(), b.StrongCount(), b.WeakCount())
}
