// Package resource provides integer handle tables for arc cells.
//
// A Table moves arc handles across a boundary that can only carry a number,
// such as a script host, a message bus or a plugin ABI. Each entry stores the
// claim of one strong or weak unit; the integer handle stands in for it.
//
// # Lifecycle
//
// The table follows the familiar own/borrow/drop discipline:
//
//	own     - InsertStrong/InsertWeak move a unit in, Take moves it back out
//	borrow  - Borrow hands out a temporary strong handle, ReturnBorrow ends it
//	drop    - Drop releases the stored unit
//
// Example:
//
//	table := resource.NewTable[*Conn]()
//
//	h, err := table.InsertStrong(arc.New(conn))
//
//	s, err := table.Borrow(h)
//	s.Load().Ping()
//	err = table.ReturnBorrow(h, s)
//
//	err = table.Drop(h) // releases the unit; conn.Drop runs if it was the last
//
// Weak entries upgrade on Borrow and fail once the value is gone. An entry
// with outstanding borrows cannot be dropped or taken. Freed handles are
// reused.
//
// # Observers
//
// Register observers to track entry lifecycle events:
//
//	table.Subscribe(myObserver)
//
//	func (o *myObserver) OnResourceEvent(e resource.Event) {
//	    switch e.Type {
//	    case resource.EventCreated:
//	        log.Printf("entry %d created for %s", e.Handle, e.Identity)
//	    case resource.EventDropped:
//	        log.Printf("entry %d dropped", e.Handle)
//	    }
//	}
//
// # Memory Management
//
// Entries are not garbage collected. Every handle must eventually be taken or
// dropped, or the unit it stores leaks. Close releases everything that is
// left and reports entries that were still borrowed.
package resource
