package block

import (
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/rcell"
	"github.com/wippyai/rcell/errors"
)

// Record is a snapshot of one block issued by a Tracker.
type Record struct {
	GoType   string
	Identity rcell.Identity
	ID       uint64
	Strong   int
	Weak     int
	State    State
}

type record struct {
	header *Header
	goType string
	state  State
}

// Tracker is an instrumented allocator. It remembers every block it issued,
// so tests and tools can observe value drops, frees and leaks.
// Lifecycle misuse (double drop, double free) is recorded rather than panicking.
type Tracker struct {
	delegate   Allocator
	logger     *zap.Logger
	records    map[uint64]*record
	violations error
	next       uint64
	limit      int
	live       int
	allocs     int
	drops      int
	frees      int
	mu         sync.Mutex
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLimit caps the number of unfreed blocks. Allocations beyond it fail.
// Zero means unlimited.
func WithLimit(n int) TrackerOption {
	return func(t *Tracker) {
		t.limit = n
	}
}

// WithDelegate forwards every event to a, which also assigns block ids.
func WithDelegate(a Allocator) TrackerOption {
	return func(t *Tracker) {
		t.delegate = a
	}
}

// WithTrackerLogger sets the logger used to report violations.
func WithTrackerLogger(l *zap.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = l
	}
}

// NewTracker creates a tracking allocator.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		records: make(map[uint64]*record),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) log() *zap.Logger {
	if t.logger != nil {
		return t.logger
	}
	return Logger()
}

// Allocate implements Allocator.
func (t *Tracker) Allocate(h *Header) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.limit > 0 && t.live >= t.limit {
		return 0, errors.New(errors.PhaseAlloc, errors.KindAllocation).
			GoType(h.GoType()).
			Detail("live block limit %d reached", t.limit).
			Value(t.limit).
			Build()
	}

	var id uint64
	if t.delegate != nil {
		var err error
		id, err = t.delegate.Allocate(h)
		if err != nil {
			return 0, err
		}
	} else {
		t.next++
		id = t.next
	}

	t.records[id] = &record{
		header: h,
		goType: h.GoType(),
		state:  StateLive,
	}
	t.live++
	t.allocs++
	return id, nil
}

// ValueDropped implements Allocator.
func (t *Tracker) ValueDropped(h *Header) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[h.ID()]
	switch {
	case !ok:
		t.violate(errors.UnknownBlock(h.ID(), "value drop"))
		return
	case rec.state != StateLive:
		t.violate(errors.DoubleDrop(h.ID()))
		return
	}

	rec.state = StateValueDropped
	t.drops++
	if t.delegate != nil {
		t.delegate.ValueDropped(h)
	}
}

// Free implements Allocator.
func (t *Tracker) Free(h *Header) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[h.ID()]
	switch {
	case !ok:
		t.violate(errors.UnknownBlock(h.ID(), "free"))
		return
	case rec.state == StateFreed:
		t.violate(errors.DoubleFree(h.ID()))
		return
	case rec.state == StateLive:
		t.violate(errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			GoType(rec.goType).
			Detail("block %d freed before its value was dropped", h.ID()).
			Value(h.ID()).
			Build())
	}

	rec.state = StateFreed
	t.live--
	t.frees++
	if t.delegate != nil {
		t.delegate.Free(h)
	}
}

func (t *Tracker) violate(err *errors.Error) {
	t.violations = multierr.Append(t.violations, err)
	t.log().Warn("block lifecycle violation",
		zap.String("kind", string(err.Kind)),
		zap.Error(err))
}

// Allocations returns the number of blocks issued.
func (t *Tracker) Allocations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allocs
}

// ValueDrops returns the number of values dropped.
func (t *Tracker) ValueDrops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drops
}

// Frees returns the number of blocks freed.
func (t *Tracker) Frees() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frees
}

// Live returns the number of blocks not yet freed.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

// LiveValues returns the number of blocks whose value is still alive.
func (t *Tracker) LiveValues() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allocs - t.drops
}

// State returns the recorded state of block id.
func (t *Tracker) State(id uint64) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return 0, false
	}
	return rec.state, true
}

// Records returns a snapshot of all blocks issued, ordered by id.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, 0, len(t.records))
	for id, rec := range t.records {
		r := Record{
			ID:       id,
			GoType:   rec.goType,
			State:    rec.state,
			Identity: rec.header.Identity(),
		}
		if rec.state != StateFreed {
			r.Strong = rec.header.StrongCount()
			r.Weak = rec.header.weakHandles()
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Err returns every recorded lifecycle violation, combined.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.violations
}

// CheckLeaks returns a *errors.LeakError listing blocks that were never freed.
func (t *Tracker) CheckLeaks() error {
	var leaked []errors.LiveBlock
	for _, r := range t.Records() {
		if r.State == StateFreed {
			continue
		}
		leaked = append(leaked, errors.LiveBlock{
			ID:     r.ID,
			GoType: r.GoType,
			Strong: r.Strong,
			Weak:   r.Weak,
		})
	}
	if len(leaked) == 0 {
		return nil
	}
	return errors.NewLeakError(leaked)
}
