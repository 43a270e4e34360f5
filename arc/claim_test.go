package arc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/rcell/errors"
)

func TestClaim_StrongRoundTrip(t *testing.T) {
	s, tr := newTracked(t, "payload")
	keep := s.Clone()
	defer keep.Release()
	id := s.Identity()

	c := s.IntoClaim()
	assert.True(t, s.Released())
	assert.Equal(t, ClaimStrong, c.Kind())
	assert.Equal(t, id, c.Identity())
	assert.Equal(t, 2, keep.StrongCount(), "claim still carries the unit")

	back := FromClaim(c)
	assert.True(t, back.Equal(keep))
	assert.Equal(t, id, back.Identity())
	assert.Equal(t, 2, keep.StrongCount(), "round trip leaves counts unchanged")

	back.Release()
	assert.Equal(t, 1, keep.StrongCount())
	assert.Equal(t, 0, tr.ValueDrops())
}

func TestClaim_PointerRoundTrip(t *testing.T) {
	s, tr := newTracked(t, 5)
	w := s.Downgrade()

	p := s.IntoClaim().Pointer()
	require.NotNil(t, p)

	back := FromClaim(ClaimFromPointer[int](p, ClaimStrong))
	assert.True(t, w.EqualStrong(back))
	assert.Equal(t, 5, back.Load())
	assert.Equal(t, 1, back.StrongCount())

	wp := w.IntoClaim().Pointer()
	wb := WeakFromClaim(ClaimFromPointer[int](wp, ClaimWeak))
	assert.True(t, back.EqualWeak(wb))
	assert.Equal(t, 1, back.WeakCount())

	back.Release()
	wb.Release()
	assert.NoError(t, tr.CheckLeaks())
}

func TestClaim_Weak(t *testing.T) {
	s, _ := newTracked(t, 1)
	defer s.Release()
	w := s.Downgrade()

	c := w.IntoClaim()
	assert.True(t, w.Empty())
	assert.Equal(t, ClaimWeak, c.Kind())
	assert.Equal(t, 1, s.WeakCount())

	back := WeakFromClaim(c)
	assert.True(t, back.EqualStrong(s))
	assert.Equal(t, 1, s.WeakCount())
	back.Release()
	assert.Equal(t, 0, s.WeakCount())
}

func TestClaim_EmptyWeak(t *testing.T) {
	c := NewWeak[int]().IntoClaim()
	assert.True(t, c.Empty())
	assert.Nil(t, c.Pointer())
	assert.True(t, c.Identity().IsZero())

	w := WeakFromClaim(c)
	assert.True(t, w.Empty())
	assert.True(t, WeakFromClaim(ClaimFromPointer[int](nil, ClaimWeak)).Empty())
}

func TestClaim_KindMismatch(t *testing.T) {
	s, _ := newTracked(t, 1)
	defer s.Release()
	wc := s.Downgrade().IntoClaim()

	assert.PanicsWithError(t,
		errors.KindMismatch(errors.PhaseClaim, "strong", "weak").Error(),
		func() { FromClaim(wc) })

	WeakFromClaim(wc).Release()

	sc := s.Clone().IntoClaim()
	assert.PanicsWithError(t,
		errors.KindMismatch(errors.PhaseClaim, "weak", "strong").Error(),
		func() { WeakFromClaim(sc) })
	FromClaim(sc).Release()

	assert.PanicsWithError(t,
		errors.KindMismatch(errors.PhaseClaim, "strong", "none").Error(),
		func() { FromClaim(Claim[int]{}) })
	assert.PanicsWithError(t,
		errors.InvalidInput(errors.PhaseClaim, "empty strong claim").Error(),
		func() { FromClaim(ClaimFromPointer[int](nil, ClaimStrong)) })
}

func TestClaimKind_String(t *testing.T) {
	assert.Equal(t, "strong", ClaimStrong.String())
	assert.Equal(t, "weak", ClaimWeak.String())
	assert.Equal(t, "none", ClaimNone.String())
}
