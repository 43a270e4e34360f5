// Package arc provides shared-ownership cells with mutable aliasing.
//
// A cell is a control block holding one value. Strong handles own the value;
// Weak handles observe the block and can try to upgrade:
//
//	s1 := arc.New(10)
//	w := s1.Downgrade()
//	s2 := s1.Clone()
//
//	*s2.MutUnchecked() += 1 // visible through s1 as well
//
//	s1.Release()
//	s2.Release()            // value dropped here
//
//	_, ok := w.Upgrade()    // ok == false
//	w.Release()             // block freed here
//
// # Aliasing
//
// MutUnchecked hands out a plain *T to every strong handle. There is no
// "shared XOR mutable" rule and no lock: concurrent writers race unless the
// value synchronizes itself (Locked) or the caller coordinates externally.
// This is the precondition of the whole package.
//
// # Release
//
// Go has no destructors, so every handle must be released explicitly, the same
// way the resource package requires an explicit Drop. Release is idempotent on
// a given handle. Using a released Strong panics with an *errors.Error of kind
// released; a released Weak simply becomes empty.
//
// Handles must not be copied by value. Clone and Downgrade are the only ways
// to create another owner or observer.
//
// # Identity
//
// Equality is identity: two handles are equal when they reference the same
// block, whatever the value says. Identity() returns the block address as a
// comparable rcell.Identity usable as a map key.
//
// # Claims
//
// IntoClaim moves a handle's unit into a Claim, and FromClaim or WeakFromClaim
// moves it back out, leaving the counts untouched. Claim.Pointer and
// ClaimFromPointer carry a claim across boundaries that only accept an
// unsafe.Pointer. Provenance is never verified; see Claim.
//
// # Weak.Get
//
// Get promotes a weak handle and returns a Guard. The guard owns the promoted
// strong unit until Guard.Release, so the returned pointer never outlives the
// value and no unit leaks.
package arc
