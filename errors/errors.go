package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Phase indicates which layer raised the error
type Phase string

const (
	PhaseAlloc  Phase = "alloc"  // control block allocation and teardown
	PhaseHandle Phase = "handle" // strong/weak handle operations
	PhaseClaim  Phase = "claim"  // raw identity claims
	PhaseTable  Phase = "table"  // resource table transport
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation        Kind = "allocation"
	KindReleased          Kind = "released"
	KindInvalidInput      Kind = "invalid_input"
	KindDoubleDrop        Kind = "double_drop"
	KindDoubleFree        Kind = "double_free"
	KindUnknownBlock      Kind = "unknown_block"
	KindUnderflow         Kind = "underflow"
	KindOverflow          Kind = "overflow"
	KindResurrection      Kind = "resurrection"
	KindNotFound          Kind = "not_found"
	KindClosed            Kind = "closed"
	KindOutstandingBorrow Kind = "outstanding_borrow"
	KindKindMismatch      Kind = "kind_mismatch"
	KindLeak              Kind = "leak"
)

// Error is the structured error type used throughout rcell
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" {
		b.WriteString(": ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the operation path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// AllocationFailed creates an allocation failure error
func AllocationFailed(goType string, cause error) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindAllocation,
		GoType: goType,
		Detail: "allocator refused control block",
		Cause:  cause,
	}
}

// Released creates a use-after-release error for a handle operation
func Released(op, goType string) *Error {
	return &Error{
		Phase:  PhaseHandle,
		Kind:   KindReleased,
		Path:   []string{op},
		GoType: goType,
		Detail: "handle already released",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// DoubleDrop creates an error for a value dropped more than once
func DoubleDrop(id uint64) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindDoubleDrop,
		Detail: fmt.Sprintf("value of block %d dropped twice", id),
		Value:  id,
	}
}

// DoubleFree creates an error for a block freed more than once
func DoubleFree(id uint64) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindDoubleFree,
		Detail: fmt.Sprintf("block %d freed twice", id),
		Value:  id,
	}
}

// UnknownBlock creates an error for a lifecycle event on a block the allocator never issued
func UnknownBlock(id uint64, event string) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindUnknownBlock,
		Detail: fmt.Sprintf("%s for unknown block %d", event, id),
		Value:  id,
	}
}

// Underflow creates a counter underflow error
func Underflow(counter string, id uint64) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindUnderflow,
		Detail: fmt.Sprintf("%s count of block %d decremented below zero", counter, id),
		Value:  id,
	}
}

// Overflow creates a counter overflow error
func Overflow(counter string, id uint64) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf("%s count of block %d overflowed", counter, id),
		Value:  id,
	}
}

// Resurrection creates an error for an increment of a count that already reached zero
func Resurrection(counter string, id uint64) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindResurrection,
		Detail: fmt.Sprintf("%s count of block %d incremented from zero", counter, id),
		Value:  id,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what string, key any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %v not found", what, key),
		Value:  key,
	}
}

// Closed creates an error for an operation on a closed component
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// OutstandingBorrow creates an error for dropping an entry that is still borrowed
func OutstandingBorrow(phase Phase, key any, borrows uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutstandingBorrow,
		Detail: fmt.Sprintf("%v has %d outstanding borrow(s)", key, borrows),
		Value:  key,
	}
}

// KindMismatch creates an error for a claim of the wrong ownership kind
func KindMismatch(phase Phase, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindKindMismatch,
		Detail: fmt.Sprintf("expected %s claim, got %s", want, got),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// LiveBlock describes a control block that was never freed
type LiveBlock struct {
	GoType string // e.g., "int", "*bytes.Buffer"
	ID     uint64
	Strong int
	Weak   int
}

// LeakError is returned when an allocator still holds live blocks at shutdown
type LeakError struct {
	Blocks []LiveBlock
}

// NewLeakError creates a leak error sorted by block id
func NewLeakError(blocks []LiveBlock) *LeakError {
	result := &LeakError{
		Blocks: make([]LiveBlock, len(blocks)),
	}
	copy(result.Blocks, blocks)
	sort.Slice(result.Blocks, func(i, j int) bool {
		return result.Blocks[i].ID < result.Blocks[j].ID
	})
	return result
}

func (e *LeakError) Error() string {
	if len(e.Blocks) == 0 {
		return "[alloc] leak: no blocks specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d control block(s) still live:\n", len(e.Blocks)))

	// Group by type for cleaner output
	byType := make(map[string][]LiveBlock)
	var typeOrder []string
	for _, blk := range e.Blocks {
		if _, exists := byType[blk.GoType]; !exists {
			typeOrder = append(typeOrder, blk.GoType)
		}
		byType[blk.GoType] = append(byType[blk.GoType], blk)
	}

	for _, t := range typeOrder {
		b.WriteString("\n  ")
		b.WriteString(t)
		b.WriteString(":\n")
		for _, blk := range byType[t] {
			b.WriteString(fmt.Sprintf("    - block %d (strong=%d weak=%d)\n", blk.ID, blk.Strong, blk.Weak))
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *LeakError) Is(target error) bool {
	if _, ok := target.(*LeakError); ok {
		return true
	}
	if t, ok := target.(*Error); ok {
		return t.Phase == PhaseAlloc && t.Kind == KindLeak
	}
	return false
}
