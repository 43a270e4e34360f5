package arc

import (
	"unsafe"

	"github.com/wippyai/rcell"
	"github.com/wippyai/rcell/block"
	"github.com/wippyai/rcell/errors"
)

// ClaimKind tells which count a claim carries a unit of.
type ClaimKind uint8

const (
	ClaimNone ClaimKind = iota
	ClaimStrong
	ClaimWeak
)

func (k ClaimKind) String() string {
	switch k {
	case ClaimStrong:
		return "strong"
	case ClaimWeak:
		return "weak"
	default:
		return "none"
	}
}

// Claim is a raw identity token that carries one counted unit out of a
// handle, for transport through code that cannot hold a handle.
//
// A claim must be turned back into a handle exactly once, with FromClaim
// for strong claims or WeakFromClaim for weak ones. Dropping a claim on the
// floor leaks its unit. Reconstructing twice from the same claim, or from a
// pointer that never came out of Pointer, is undefined behavior: the counts
// go wrong and the value may be dropped while still in use. None of this is
// checked.
type Claim[T any] struct {
	b    *block.Block[T]
	kind ClaimKind
}

// ClaimFromPointer rebuilds a claim from a pointer produced by Claim.Pointer.
// kind must match the claim that produced p.
func ClaimFromPointer[T any](p unsafe.Pointer, kind ClaimKind) Claim[T] {
	if p == nil {
		return Claim[T]{kind: kind}
	}
	return Claim[T]{b: block.FromPointer[T](p), kind: kind}
}

// Kind returns the kind of unit the claim carries.
func (c Claim[T]) Kind() ClaimKind {
	return c.kind
}

// Identity returns the block address, or 0 for an empty claim.
func (c Claim[T]) Identity() rcell.Identity {
	if c.b == nil {
		return 0
	}
	return c.b.Identity()
}

// Empty reports whether the claim references no block.
func (c Claim[T]) Empty() bool {
	return c.b == nil
}

// Pointer returns the block address. The pointer keeps the block reachable
// for the garbage collector; converting it to uintptr does not.
func (c Claim[T]) Pointer() unsafe.Pointer {
	if c.b == nil {
		return nil
	}
	return c.b.Pointer()
}

// FromClaim turns a strong claim back into a strong handle. Counts are
// unchanged: the handle takes over the unit the claim carried.
func FromClaim[T any](c Claim[T]) *Strong[T] {
	if c.kind != ClaimStrong {
		panic(errors.KindMismatch(errors.PhaseClaim, ClaimStrong.String(), c.kind.String()))
	}
	if c.b == nil {
		panic(errors.InvalidInput(errors.PhaseClaim, "empty strong claim"))
	}
	return wrapStrong(c.b)
}

// WeakFromClaim turns a weak claim back into a weak handle.
// An empty weak claim yields an empty handle.
func WeakFromClaim[T any](c Claim[T]) *Weak[T] {
	if c.kind != ClaimWeak {
		panic(errors.KindMismatch(errors.PhaseClaim, ClaimWeak.String(), c.kind.String()))
	}
	if c.b == nil {
		return NewWeak[T]()
	}
	return wrapWeak(c.b)
}
