package resource

import (
	"github.com/wippyai/rcell"
	"github.com/wippyai/rcell/arc"
)

// Handle is an opaque reference to an entry in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Event types for entry lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventBorrowReturned
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow_returned"
	default:
		return "unknown"
	}
}

// Event represents an entry lifecycle event.
type Event struct {
	Identity rcell.Identity
	Handle   Handle
	Kind     arc.ClaimKind
	Type     EventType
}

// Observer receives notifications about entry lifecycle events.
// Observers are called synchronously and must not call back into the table.
type Observer interface {
	OnResourceEvent(Event)
}
