package rcell

import "strconv"

// Identity names a control block by its address.
// Identity 0 is reserved for empty weak handles.
//
// An Identity does not own anything and does not keep the block reachable.
// It is only meaningful for comparison and hashing while some handle or
// claim keeps the block alive.
type Identity uintptr

// IsZero reports whether id names no block.
func (id Identity) IsZero() bool {
	return id == 0
}

func (id Identity) String() string {
	return "0x" + strconv.FormatUint(uint64(id), 16)
}

// Counts is a best-effort snapshot of a block's reference counts.
type Counts struct {
	Strong int
	Weak   int
}
