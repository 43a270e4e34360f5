package block

import (
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/wippyai/rcell"
	"github.com/wippyai/rcell/errors"
)

// Dropper is optionally implemented by values that need cleanup when the
// last strong handle is released.
type Dropper interface {
	Drop()
}

// State is the lifecycle state of a control block.
type State uint8

const (
	StateLive State = iota
	StateValueDropped
	StateFreed
)

func (s State) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateValueDropped:
		return "value-dropped"
	case StateFreed:
		return "freed"
	default:
		return "unknown"
	}
}

// Header holds the counts shared by every handle to one allocation.
// It must stay the first field of Block so that a header address and its
// block address coincide.
type Header struct {
	strong atomic.Uint64
	weak   atomic.Uint64
	alloc  Allocator
	goType string
	id     uint64
	shared bool
}

// ID returns the allocator-assigned id of the block.
func (h *Header) ID() uint64 {
	return h.id
}

// GoType returns the type name of the stored value.
func (h *Header) GoType() string {
	return h.goType
}

// Shared reports whether the block was created with the cross-goroutine capability.
func (h *Header) Shared() bool {
	return h.shared
}

// Identity returns the address of the block.
func (h *Header) Identity() rcell.Identity {
	return rcell.Identity(uintptr(unsafe.Pointer(h))) //nolint:gosec // identity token only
}

// IncStrong adds a strong unit. The caller must already hold one.
func (h *Header) IncStrong() {
	if n := h.strong.Add(1); n <= 1 {
		panic(errors.Resurrection("strong", h.id))
	}
}

// TryIncStrong adds a strong unit only if the count is non-zero.
func (h *Header) TryIncStrong() bool {
	for {
		n := h.strong.Load()
		if n == 0 {
			return false
		}
		if n == ^uint64(0) {
			panic(errors.Overflow("strong", h.id))
		}
		if h.strong.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// DecStrong removes a strong unit and reports whether the count reached zero.
func (h *Header) DecStrong() bool {
	n := h.strong.Add(^uint64(0))
	if n == ^uint64(0) {
		panic(errors.Underflow("strong", h.id))
	}
	return n == 0
}

// IncWeak adds a weak unit. The caller must hold a strong or weak unit.
func (h *Header) IncWeak() {
	if n := h.weak.Add(1); n <= 1 {
		panic(errors.Resurrection("weak", h.id))
	}
}

// DecWeak removes a weak unit and reports whether the count reached zero.
func (h *Header) DecWeak() bool {
	n := h.weak.Add(^uint64(0))
	if n == ^uint64(0) {
		panic(errors.Underflow("weak", h.id))
	}
	return n == 0
}

// StrongCount returns a snapshot of the strong count.
func (h *Header) StrongCount() int {
	return int(h.strong.Load()) //nolint:gosec // bounded by live handles
}

// WeakCount returns a snapshot of the number of weak handles.
// It reports zero once no strong handle remains.
func (h *Header) WeakCount() int {
	// weak first: a positive strong count read afterwards proves the implicit
	// unit was still held when weak was read.
	w := h.weak.Load()
	if h.strong.Load() == 0 {
		return 0
	}
	return int(w - 1) //nolint:gosec // bounded by live handles
}

// weakHandles counts weak handles including those outliving the value.
func (h *Header) weakHandles() int {
	w := h.weak.Load()
	if h.strong.Load() > 0 && w > 0 {
		w--
	}
	return int(w) //nolint:gosec // bounded by live handles
}

// State derives the lifecycle state from the counts.
func (h *Header) State() State {
	switch {
	case h.strong.Load() > 0:
		return StateLive
	case h.weak.Load() > 0:
		return StateValueDropped
	default:
		return StateFreed
	}
}

// Counts returns a snapshot of both counts.
func (h *Header) Counts() rcell.Counts {
	return rcell.Counts{Strong: h.StrongCount(), Weak: h.WeakCount()}
}

// Block is a control block holding one value of type T.
type Block[T any] struct {
	Header
	value T
}

// New allocates a block holding v with strong=1 and no weak handles.
// The returned error is an *errors.Error of kind allocation.
func New[T any](v T, a Allocator, shared bool) (*Block[T], error) {
	if a == nil {
		a = Default()
	}
	b := &Block[T]{value: v}
	b.strong.Store(1)
	b.weak.Store(1)
	b.alloc = a
	b.goType = TypeName[T]()
	b.shared = shared

	id, err := a.Allocate(&b.Header)
	if err != nil {
		return nil, errors.AllocationFailed(b.goType, err)
	}
	b.id = id
	return b, nil
}

// FromPointer converts a pointer produced by Pointer back into a block.
// p must come from a Block[T] of the same T.
func FromPointer[T any](p unsafe.Pointer) *Block[T] {
	return (*Block[T])(p)
}

// Pointer returns the block address as an unsafe.Pointer. Holding the
// pointer keeps the allocation reachable for the garbage collector; a
// uintptr conversion does not.
func (b *Block[T]) Pointer() unsafe.Pointer {
	return unsafe.Pointer(b) //nolint:gosec // raw identity transport
}

// Value returns a pointer to the stored value. Only valid while strong > 0.
func (b *Block[T]) Value() *T {
	return &b.value
}

// ReleaseStrong returns one strong unit. On the last one the value is
// dropped and the implicit weak unit is returned.
func (b *Block[T]) ReleaseStrong() {
	if !b.DecStrong() {
		return
	}
	b.dropValue()
	b.alloc.ValueDropped(&b.Header)
	b.ReleaseWeak()
}

// ReleaseWeak returns one weak unit and frees the block on the last one.
func (b *Block[T]) ReleaseWeak() {
	if b.DecWeak() {
		b.alloc.Free(&b.Header)
	}
}

func (b *Block[T]) dropValue() {
	if d, ok := any(&b.value).(Dropper); ok {
		d.Drop()
	} else if d, ok := any(b.value).(Dropper); ok && !isNilPointer(d) {
		d.Drop()
	}
	var zero T
	b.value = zero
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// TypeName returns the display name of T.
func TypeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
