package arc

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/rcell/block"
)

type closer struct {
	closed *atomic.Int32
}

func (c *closer) Drop() {
	c.closed.Add(1)
}

func TestNewWeak_Empty(t *testing.T) {
	w := NewWeak[int]()

	u, ok := w.Upgrade()
	assert.False(t, ok)
	assert.Nil(t, u)
	assert.False(t, w.Upgradable())
	assert.True(t, w.Empty())
	assert.Equal(t, 0, w.StrongCount())
	assert.Equal(t, 0, w.WeakCount())
	assert.True(t, w.Identity().IsZero())

	g, ok := w.Get()
	assert.False(t, ok)
	assert.Nil(t, g)

	c := w.Clone()
	assert.True(t, c.Empty())
	assert.True(t, w.Equal(c), "empty handles are equal")
	assert.NotPanics(t, w.Release)
	assert.Equal(t, "Weak[int]{empty}", w.String())
}

func TestWeak_ZeroValueIsEmpty(t *testing.T) {
	var w Weak[string]
	assert.True(t, w.Empty())
	_, ok := w.Upgrade()
	assert.False(t, ok)
}

func TestWeak_Clone(t *testing.T) {
	s, tr := newTracked(t, 1)
	w := s.Downgrade()
	c := w.Clone()

	assert.Equal(t, 2, s.WeakCount())
	assert.Equal(t, 1, s.StrongCount())
	assert.True(t, w.Equal(c))

	s.Release()
	w.Release()
	assert.Equal(t, 1, tr.Live())
	c.Release()
	assert.Equal(t, 0, tr.Live())
}

func TestWeak_UpgradeAfterValueDropped(t *testing.T) {
	var closed atomic.Int32
	s, tr := newTracked(t, &closer{closed: &closed})
	w := s.Downgrade()

	assert.True(t, w.Upgradable())
	s.Release()

	assert.Equal(t, int32(1), closed.Load(), "value dropped with the last strong handle")
	assert.False(t, w.Upgradable())
	_, ok := w.Upgrade()
	assert.False(t, ok)
	assert.Equal(t, 0, w.StrongCount())
	assert.False(t, w.Empty(), "weak still references the block")

	state, ok := tr.State(1)
	require.True(t, ok)
	assert.Equal(t, block.StateValueDropped, state)

	w.Release()
	state, _ = tr.State(1)
	assert.Equal(t, block.StateFreed, state)
	assert.True(t, w.Empty())
}

func TestWeak_Get(t *testing.T) {
	s, _ := newTracked(t, []int{1, 2})
	w := s.Downgrade()
	defer w.Release()

	g, ok := w.Get()
	require.True(t, ok)
	assert.Equal(t, 2, s.StrongCount(), "guard holds a strong unit")
	assert.True(t, g.Strong().Equal(s))

	*g.Ptr() = append(*g.Ptr(), 3)
	assert.Equal(t, []int{1, 2, 3}, s.Load())

	g.Release()
	g.Release()
	assert.Equal(t, 1, s.StrongCount(), "guard release returns the unit")

	s.Release()
	_, ok = w.Get()
	assert.False(t, ok)
}

func TestWeak_GuardKeepsValueAlive(t *testing.T) {
	var closed atomic.Int32
	s, _ := newTracked(t, &closer{closed: &closed})
	w := s.Downgrade()

	g, ok := w.Get()
	require.True(t, ok)
	s.Release()
	assert.Equal(t, int32(0), closed.Load())
	assert.NotNil(t, *g.Ptr())

	g.Release()
	assert.Equal(t, int32(1), closed.Load())
	w.Release()
}

func TestWeak_ReleaseIsIdempotent(t *testing.T) {
	s, tr := newTracked(t, 1)
	w := s.Downgrade()
	w.Release()
	w.Release()
	assert.Equal(t, 0, s.WeakCount())
	s.Release()
	assert.Equal(t, 0, tr.Live())
	assert.NoError(t, tr.Err())
}

func TestWeak_String(t *testing.T) {
	s, _ := newTracked(t, 1)
	w := s.Downgrade()
	assert.Contains(t, w.String(), "Weak[int]{id=1")
	s.Release()
	assert.Contains(t, w.String(), "strong=0, weak=0")
	w.Release()
}

func TestWeak_ConcurrentUpgradeNeverResurrects(t *testing.T) {
	for round := 0; round < 50; round++ {
		tr := block.NewTracker()
		s := New(Locked[int]{}, WithAllocator(tr), WithShared())
		w := s.Downgrade()

		const workers = 8
		owners := make([]*Strong[Locked[int]], workers)
		for i := range owners {
			owners[i] = s.Clone()
		}
		s.Release()

		var g errgroup.Group
		for i := 0; i < workers; i++ {
			owner := owners[i]
			g.Go(func() error {
				owner.MutUnchecked().With(func(v *int) { *v++ })
				owner.Release()
				return nil
			})
			g.Go(func() error {
				if u, ok := w.Upgrade(); ok {
					u.MutUnchecked().With(func(v *int) { *v++ })
					u.Release()
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		_, ok := w.Upgrade()
		assert.False(t, ok)
		assert.Equal(t, 1, tr.ValueDrops())
		w.Release()
		assert.Equal(t, 1, tr.Frees())
		assert.NoError(t, tr.Err())
	}
}

func TestWeak_ConcurrentCloneAndRelease(t *testing.T) {
	tr := block.NewTracker()
	s := New(Locked[int]{}, WithAllocator(tr), WithShared())
	w := s.Downgrade()

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			c := w.Clone()
			if u, ok := c.Upgrade(); ok {
				u.MutUnchecked().Store(1)
				u.Release()
			}
			c.Release()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, s.WeakCount())
	assert.Equal(t, 1, s.StrongCount())
	s.Release()
	w.Release()
	assert.NoError(t, tr.CheckLeaks())
}
