// Package block implements the control block behind rcell handles.
//
// A control block holds one value plus two independent atomic counters:
//
//	strong - number of owning handles; the value is live while it is non-zero
//	weak   - number of observing handles, plus one unit shared by all strong handles
//
// The extra weak unit is released right after the value is dropped. Exactly one
// DecWeak therefore observes zero, and that caller frees the block, however the
// last strong and weak releases interleave.
//
// # Lifecycle
//
// Each block moves through three states, one way only:
//
//	Live          strong > 0
//	ValueDropped  strong == 0, weak > 0
//	Freed         strong == 0, weak == 0
//
// TryIncStrong is a compare-and-swap loop that refuses to leave zero, so a weak
// observer can never bring a ValueDropped block back to Live.
//
// # Allocators
//
// Allocation bookkeeping is pluggable through the Allocator interface:
//
//	heap := block.NewHeap(block.WithHeapMetrics(block.NewMetrics(reg)))
//	tracker := block.NewTracker(block.WithDelegate(heap), block.WithLimit(1024))
//
// Heap is the default. Tracker records the state of every block it issued,
// which makes leaks, double drops and double frees observable in tests.
//
// # Memory Ordering
//
// Counters use sync/atomic, which is sequentially consistent. A decrement to
// zero is never followed by a successful TryIncStrong, and the goroutine that
// frees the block observes every earlier decrement.
//
// The value itself is not synchronized. Concurrent access to it is the
// caller's responsibility.
package block
