package resource

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/rcell"
	"github.com/wippyai/rcell/arc"
	"github.com/wippyai/rcell/errors"
)

// Table maps integer handles to stored claims of one value type.
type Table[T any] struct {
	backend   *LocalBackend[T]
	logger    *zap.Logger
	observers []Observer
	obsMu     sync.RWMutex
}

// Option configures a Table.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for lifecycle debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// NewTable creates a new table with a LocalBackend.
func NewTable[T any](opts ...Option) *Table[T] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Table[T]{
		backend: NewLocalBackend[T](),
		logger:  o.logger.Named("resource"),
	}
}

// InsertStrong moves s into the table. s is consumed either way; if the
// insert fails, its unit is released.
func (t *Table[T]) InsertStrong(s *arc.Strong[T]) (Handle, error) {
	if s == nil || s.Released() {
		return 0, errors.InvalidInput(errors.PhaseTable, "cannot insert a released strong handle")
	}
	return t.insert(s.IntoClaim())
}

// InsertWeak moves w into the table. Empty weak handles are accepted.
func (t *Table[T]) InsertWeak(w *arc.Weak[T]) (Handle, error) {
	if w == nil {
		return 0, errors.InvalidInput(errors.PhaseTable, "cannot insert a nil weak handle")
	}
	return t.insert(w.IntoClaim())
}

func (t *Table[T]) insert(c arc.Claim[T]) (Handle, error) {
	h, err := t.backend.Create(c)
	if err != nil {
		releaseClaim(c)
		return 0, err
	}

	t.logger.Debug("entry created",
		zap.Uint32("handle", uint32(h)),
		zap.Stringer("kind", c.Kind()),
		zap.Stringer("identity", c.Identity()))
	t.notify(Event{Type: EventCreated, Handle: h, Kind: c.Kind(), Identity: c.Identity()})
	return h, nil
}

// Take removes a strong entry and hands its unit back as a handle.
func (t *Table[T]) Take(h Handle) (*arc.Strong[T], error) {
	c, err := t.backend.Remove(h, arc.ClaimStrong)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("entry taken", zap.Uint32("handle", uint32(h)), zap.Stringer("identity", c.Identity()))
	t.notify(Event{Type: EventDropped, Handle: h, Kind: c.Kind(), Identity: c.Identity()})
	return arc.FromClaim(c), nil
}

// Borrow returns a temporary strong handle to the entry's value.
// Every successful Borrow must be matched by ReturnBorrow.
func (t *Table[T]) Borrow(h Handle) (*arc.Strong[T], error) {
	s, err := t.backend.Borrow(h)
	if err != nil {
		return nil, err
	}

	t.notify(Event{Type: EventBorrowed, Handle: h, Kind: arc.ClaimStrong, Identity: s.Identity()})
	return s, nil
}

// ReturnBorrow ends a borrow started with Borrow and releases s.
func (t *Table[T]) ReturnBorrow(h Handle, s *arc.Strong[T]) error {
	if s == nil || s.Released() {
		return errors.InvalidInput(errors.PhaseTable, "cannot return a released strong handle")
	}
	id := s.Identity()
	if err := t.backend.ReturnBorrow(h, id); err != nil {
		return err
	}

	s.Release()
	t.notify(Event{Type: EventBorrowReturned, Handle: h, Kind: arc.ClaimStrong, Identity: id})
	return nil
}

// Drop removes an entry and releases the unit it held.
func (t *Table[T]) Drop(h Handle) error {
	c, err := t.backend.Remove(h, arc.ClaimNone)
	if err != nil {
		return err
	}

	id := c.Identity()
	releaseClaim(c)

	t.logger.Debug("entry dropped",
		zap.Uint32("handle", uint32(h)),
		zap.Stringer("kind", c.Kind()),
		zap.Stringer("identity", id))
	t.notify(Event{Type: EventDropped, Handle: h, Kind: c.Kind(), Identity: id})
	return nil
}

// Identity returns the identity of the block an entry references.
// Empty weak entries have identity 0.
func (t *Table[T]) Identity(h Handle) (rcell.Identity, error) {
	_, id, err := t.backend.Peek(h)
	return id, err
}

// Kind returns the kind of unit an entry holds.
func (t *Table[T]) Kind(h Handle) (arc.ClaimKind, error) {
	k, _, err := t.backend.Peek(h)
	return k, err
}

// Borrows returns the number of outstanding borrows of an entry.
func (t *Table[T]) Borrows(h Handle) (uint32, error) {
	return t.backend.Borrows(h)
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table[T]) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of entries.
func (t *Table[T]) Len() int {
	return t.backend.Len()
}

// Each iterates over all entries. fn must not call back into the table.
func (t *Table[T]) Each(fn func(Handle, arc.ClaimKind, rcell.Identity) bool) {
	t.backend.Each(fn)
}

// Clear drops every entry that is not borrowed. Borrowed entries stay and
// are reported in the returned error.
func (t *Table[T]) Clear() error {
	// Collect handles first to avoid holding the lock during Drop
	var handles []Handle
	t.backend.Each(func(h Handle, _ arc.ClaimKind, _ rcell.Identity) bool {
		handles = append(handles, h)
		return true
	})

	var errs error
	for _, h := range handles {
		errs = multierr.Append(errs, t.Drop(h))
	}
	return errs
}

// Close releases every entry and stops accepting operations. Entries that
// were still borrowed are released anyway and reported in the returned error.
func (t *Table[T]) Close() error {
	claims, handles, err := t.backend.Drain()
	for i, c := range claims {
		id := c.Identity()
		releaseClaim(c)
		t.notify(Event{Type: EventDropped, Handle: handles[i], Kind: c.Kind(), Identity: id})
	}
	if err != nil {
		t.logger.Warn("table closed with outstanding borrows", zap.Error(err))
	} else if len(claims) > 0 {
		t.logger.Debug("table closed", zap.Int("released", len(claims)))
	}
	return err
}

func (t *Table[T]) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
