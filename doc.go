// Package rcell provides shared-ownership, mutably aliased reference-counted
// cells for Go.
//
// A cell is a heap control block that holds one value together with a strong
// count and a weak count. Strong handles keep the value alive; weak handles
// keep only the block alive and can try to become strong again. Unlike
// sync.Mutex-guarded sharing, every strong handle may obtain a plain *T to the
// value at any time. Coordinating writers is the caller's job.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	rcell/          Root package with Identity and Counts
//	├── arc/        Strong and Weak handles, claims, guards, Locked
//	├── block/      Control block, atomic counters, allocators, metrics
//	├── resource/   Integer handle tables for passing cells across boundaries
//	├── errors/     Structured error types for debugging
//	└── cmd/rcplay  Scenario runner and interactive inspector
//
// # Quick Start
//
//	s1 := arc.New(10)
//	w := s1.Downgrade()
//	s2 := s1.Clone()
//
//	*s2.MutUnchecked() += 1
//	fmt.Println(s1.Load()) // 11
//
//	s1.Release()
//	s2.Release() // value dropped
//
//	if _, ok := w.Upgrade(); !ok {
//	    fmt.Println("gone")
//	}
//	w.Release() // block freed
//
// # Lifecycle
//
// Go has no destructors, so handles are released explicitly. When the last
// strong handle is released the value is dropped: if it implements
// block.Dropper its Drop method runs once and the slot is zeroed. When the
// last handle of either kind is released the allocator frees the block.
//
// # Thread Safety
//
// Counts are atomic, so handles may be cloned, downgraded, upgraded and
// released from any goroutine. Values are not protected. Cells created with
// arc.WithShared must hold a value that synchronizes itself, such as
// arc.Locked.
//
// # Observability
//
// block.Tracker records every block it allocates and reports leaks and
// lifecycle misuse; block.Heap exports Prometheus metrics and logs through zap
// when configured.
package rcell
