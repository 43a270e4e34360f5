package block

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Allocator performs the bookkeeping side of control block allocation.
// Counting itself happens on the Header; the allocator observes the three
// lifecycle transitions.
type Allocator interface {
	// Allocate registers a freshly initialized block and returns its id.
	// A non-nil error is fatal to the caller.
	Allocate(h *Header) (uint64, error)

	// ValueDropped is called exactly once, after the value of h was dropped.
	ValueDropped(h *Header)

	// Free is called exactly once, when no handle references h anymore.
	Free(h *Header)
}

var (
	defaultAlloc     Allocator
	defaultAllocOnce sync.Once
)

// Default returns the process-wide allocator used when none is given.
// It is a Heap unless SetDefault was called first.
func Default() Allocator {
	defaultAllocOnce.Do(func() {
		if defaultAlloc == nil {
			defaultAlloc = NewHeap()
		}
	})
	return defaultAlloc
}

// SetDefault replaces the process-wide allocator.
// This must be called before any block is allocated.
func SetDefault(a Allocator) {
	defaultAlloc = a
}

// Stats is a snapshot of allocator counters.
type Stats struct {
	Allocations uint64
	LiveValues  int64
	LiveBlocks  int64
}

// Heap is the default allocator. Memory itself is owned by the Go runtime;
// Heap assigns ids and keeps live counters.
type Heap struct {
	logger     *zap.Logger
	metrics    *Metrics
	next       atomic.Uint64
	liveValues atomic.Int64
	liveBlocks atomic.Int64
}

// HeapOption configures a Heap.
type HeapOption func(*Heap)

// WithHeapLogger sets the logger used for lifecycle debug output.
func WithHeapLogger(l *zap.Logger) HeapOption {
	return func(h *Heap) {
		h.logger = l
	}
}

// WithHeapMetrics attaches Prometheus metrics.
func WithHeapMetrics(m *Metrics) HeapOption {
	return func(h *Heap) {
		h.metrics = m
	}
}

// NewHeap creates a heap allocator.
func NewHeap(opts ...HeapOption) *Heap {
	h := &Heap{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Heap) log() *zap.Logger {
	if h.logger != nil {
		return h.logger
	}
	return Logger()
}

// Allocate implements Allocator.
func (h *Heap) Allocate(hd *Header) (uint64, error) {
	id := h.next.Add(1)
	h.liveValues.Add(1)
	h.liveBlocks.Add(1)
	h.metrics.allocated(hd.GoType())

	h.log().Debug("block allocated",
		zap.Uint64("id", id),
		zap.String("type", hd.GoType()),
		zap.Bool("shared", hd.Shared()))
	return id, nil
}

// ValueDropped implements Allocator.
func (h *Heap) ValueDropped(hd *Header) {
	h.liveValues.Add(-1)
	h.metrics.valueDropped(hd.GoType())

	h.log().Debug("block value dropped",
		zap.Uint64("id", hd.ID()),
		zap.String("type", hd.GoType()))
}

// Free implements Allocator.
func (h *Heap) Free(hd *Header) {
	h.liveBlocks.Add(-1)
	h.metrics.freed(hd.GoType())

	h.log().Debug("block freed",
		zap.Uint64("id", hd.ID()),
		zap.String("type", hd.GoType()))
}

// Stats returns a snapshot of the heap counters.
func (h *Heap) Stats() Stats {
	return Stats{
		Allocations: h.next.Load(),
		LiveValues:  h.liveValues.Load(),
		LiveBlocks:  h.liveBlocks.Load(),
	}
}
