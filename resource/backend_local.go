package resource

import (
	"sync"

	"go.uber.org/multierr"

	"github.com/wippyai/rcell"
	"github.com/wippyai/rcell/arc"
	"github.com/wippyai/rcell/errors"
)

// LocalBackend is an in-memory claim store with borrow tracking.
//
// The backend only moves claims around; it never releases a unit itself.
// Whatever leaves the backend is released by the caller, outside the lock,
// so a value's Drop may safely call back into the table.
type LocalBackend[T any] struct {
	entries  []entry[T]
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

type entry[T any] struct {
	claim       arc.Claim[T]
	borrowCount uint32
	valid       bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend[T any]() *LocalBackend[T] {
	return &LocalBackend[T]{
		entries:  make([]entry[T], 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Create stores a claim and returns its handle.
func (b *LocalBackend[T]) Create(c arc.Claim[T]) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, errors.Closed(errors.PhaseTable, "backend")
	}

	e := entry[T]{claim: c, valid: true}

	if len(b.freeList) > 0 {
		handle := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		b.entries[handle-1] = e
		return handle, nil
	}

	b.entries = append(b.entries, e)
	return Handle(len(b.entries)), nil
}

// lookup must be called with b.mu held.
func (b *LocalBackend[T]) lookup(handle Handle) (*entry[T], error) {
	if b.closed {
		return nil, errors.Closed(errors.PhaseTable, "backend")
	}
	if handle == 0 || int(handle) > len(b.entries) {
		return nil, errors.NotFound(errors.PhaseTable, "handle", handle)
	}
	e := &b.entries[handle-1]
	if !e.valid {
		return nil, errors.NotFound(errors.PhaseTable, "handle", handle)
	}
	return e, nil
}

// Peek returns the kind and identity of the stored claim.
func (b *LocalBackend[T]) Peek(handle Handle) (arc.ClaimKind, rcell.Identity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, err := b.lookup(handle)
	if err != nil {
		return arc.ClaimNone, 0, err
	}
	return e.claim.Kind(), e.claim.Identity(), nil
}

// Remove takes the claim out of the table and frees the slot.
// With want set to ClaimNone any kind is accepted. Entries with
// outstanding borrows are refused.
func (b *LocalBackend[T]) Remove(handle Handle, want arc.ClaimKind) (arc.Claim[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.lookup(handle)
	if err != nil {
		return arc.Claim[T]{}, err
	}
	if want != arc.ClaimNone && e.claim.Kind() != want {
		return arc.Claim[T]{}, errors.KindMismatch(errors.PhaseTable, want.String(), e.claim.Kind().String())
	}
	if e.borrowCount > 0 {
		return arc.Claim[T]{}, errors.OutstandingBorrow(errors.PhaseTable, handle, e.borrowCount)
	}

	c := e.claim
	*e = entry[T]{}
	b.freeList = append(b.freeList, handle)
	return c, nil
}

// Borrow returns a new strong handle to the entry's value and counts the
// borrow. Weak entries are upgraded; if their value is gone the borrow fails.
func (b *LocalBackend[T]) Borrow(handle Handle) (*arc.Strong[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.lookup(handle)
	if err != nil {
		return nil, err
	}

	var s *arc.Strong[T]
	switch e.claim.Kind() {
	case arc.ClaimStrong:
		owner := arc.FromClaim(e.claim)
		s = owner.Clone()
		e.claim = owner.IntoClaim()
	case arc.ClaimWeak:
		w := arc.WeakFromClaim(e.claim)
		u, ok := w.Upgrade()
		e.claim = w.IntoClaim()
		if !ok {
			return nil, errors.New(errors.PhaseTable, errors.KindReleased).
				Value(handle).
				Detail("value behind weak entry %d already dropped", handle).
				Build()
		}
		s = u
	default:
		return nil, errors.KindMismatch(errors.PhaseTable, "strong or weak", e.claim.Kind().String())
	}

	e.borrowCount++
	return s, nil
}

// ReturnBorrow decrements the borrow count of the entry whose block has
// the given identity.
func (b *LocalBackend[T]) ReturnBorrow(handle Handle, id rcell.Identity) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.lookup(handle)
	if err != nil {
		return err
	}
	if e.borrowCount == 0 {
		return errors.InvalidInput(errors.PhaseTable, "no outstanding borrow to return")
	}
	if e.claim.Identity() != id {
		return errors.InvalidInput(errors.PhaseTable, "returned handle does not belong to this entry")
	}

	e.borrowCount--
	return nil
}

// Borrows returns the number of outstanding borrows of an entry.
func (b *LocalBackend[T]) Borrows(handle Handle) (uint32, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, err := b.lookup(handle)
	if err != nil {
		return 0, err
	}
	return e.borrowCount, nil
}

// Drain closes the backend and hands back every stored claim. Entries
// that were still borrowed are reported in the returned error; their
// claims are handed back all the same.
func (b *LocalBackend[T]) Drain() ([]arc.Claim[T], []Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, nil, nil
	}
	b.closed = true

	var (
		claims  []arc.Claim[T]
		handles []Handle
		errs    error
	)
	for i := range b.entries {
		e := &b.entries[i]
		if !e.valid {
			continue
		}
		if e.borrowCount > 0 {
			errs = multierr.Append(errs, errors.OutstandingBorrow(errors.PhaseTable, Handle(i+1), e.borrowCount))
		}
		claims = append(claims, e.claim)
		handles = append(handles, Handle(i+1))
	}

	b.entries = nil
	b.freeList = nil
	return claims, handles, errs
}

// Closed reports whether Drain has been called.
func (b *LocalBackend[T]) Closed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Len returns the number of stored entries.
func (b *LocalBackend[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all stored entries.
func (b *LocalBackend[T]) Each(fn func(Handle, arc.ClaimKind, rcell.Identity) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(Handle(i+1), e.claim.Kind(), e.claim.Identity()) {
				break
			}
		}
	}
}

func releaseClaim[T any](c arc.Claim[T]) {
	switch c.Kind() {
	case arc.ClaimStrong:
		if !c.Empty() {
			arc.FromClaim(c).Release()
		}
	case arc.ClaimWeak:
		arc.WeakFromClaim(c).Release()
	}
}
