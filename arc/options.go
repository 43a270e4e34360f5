package arc

import (
	"reflect"
	"sync"

	"github.com/wippyai/rcell/block"
)

type options struct {
	alloc  block.Allocator
	shared bool
}

// Option configures a new cell.
type Option func(*options)

// WithAllocator allocates the control block through a instead of block.Default().
func WithAllocator(a block.Allocator) Option {
	return func(o *options) {
		o.alloc = a
	}
}

// WithShared marks the cell as safe to hand to other goroutines.
// The value type must synchronize itself: T or *T has to implement
// sync.Locker (see Locked), otherwise New panics.
func WithShared() Option {
	return func(o *options) {
		o.shared = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.alloc == nil {
		o.alloc = block.Default()
	}
	return o
}

var lockerType = reflect.TypeFor[sync.Locker]()

func lockable[T any]() bool {
	t := reflect.TypeFor[T]()
	return t.Implements(lockerType) || reflect.PointerTo(t).Implements(lockerType)
}
