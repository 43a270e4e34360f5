package arc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/rcell/block"
)

func TestLocked_Basic(t *testing.T) {
	l := NewLocked(3)
	assert.Equal(t, 3, l.Load())
	l.Store(4)
	l.With(func(v *int) { *v *= 2 })
	assert.Equal(t, 8, l.Load())

	var _ sync.Locker = l
}

func TestLocked_SharedCellCounter(t *testing.T) {
	tr := block.NewTracker()
	s := New(Locked[map[string]int]{}, WithAllocator(tr), WithShared())
	s.MutUnchecked().Store(map[string]int{})

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		h := s.Clone()
		g.Go(func() error {
			defer h.Release()
			for j := 0; j < 100; j++ {
				h.MutUnchecked().With(func(m *map[string]int) { (*m)["hits"]++ })
			}
			return nil
		})
	}
	assert.NoError(t, g.Wait())

	assert.Equal(t, 3200, s.MutUnchecked().Load()["hits"])
	assert.Equal(t, 1, s.StrongCount())
	s.Release()
	assert.NoError(t, tr.CheckLeaks())
}
