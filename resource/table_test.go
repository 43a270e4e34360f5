package resource

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/rcell"
	"github.com/wippyai/rcell/arc"
	"github.com/wippyai/rcell/block"
	"github.com/wippyai/rcell/errors"
)

type testObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *testObserver) types() []EventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]EventType, len(o.events))
	for i, e := range o.events {
		out[i] = e.Type
	}
	return out
}

type dropCounter struct {
	count int
}

func (d *dropCounter) Drop() {
	d.count++
}

func TestTable_InsertTake(t *testing.T) {
	tr := block.NewTracker()
	table := NewTable[string]()

	s := arc.New("test", arc.WithAllocator(tr))
	id := s.Identity()

	h, err := table.InsertStrong(s)
	require.NoError(t, err)
	assert.NotZero(t, h)
	assert.True(t, s.Released(), "insert consumes the handle")
	assert.Equal(t, 1, table.Len())

	got, err := table.Identity(h)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	kind, err := table.Kind(h)
	require.NoError(t, err)
	assert.Equal(t, arc.ClaimStrong, kind)

	back, err := table.Take(h)
	require.NoError(t, err)
	assert.Equal(t, "test", back.Load())
	assert.Equal(t, 1, back.StrongCount(), "round trip leaves counts unchanged")
	assert.Equal(t, 0, table.Len())

	_, err = table.Take(h)
	assert.True(t, hasKind(err, errors.KindNotFound))

	back.Release()
	assert.NoError(t, tr.CheckLeaks())
}

func TestTable_InsertReleased(t *testing.T) {
	table := NewTable[int]()

	s := arc.New(1, arc.WithAllocator(block.NewTracker()))
	s.Release()
	_, err := table.InsertStrong(s)
	assert.True(t, hasKind(err, errors.KindInvalidInput))

	_, err = table.InsertStrong(nil)
	assert.True(t, hasKind(err, errors.KindInvalidInput))
	_, err = table.InsertWeak(nil)
	assert.True(t, hasKind(err, errors.KindInvalidInput))
}

func TestTable_WeakEntry(t *testing.T) {
	tr := block.NewTracker()
	table := NewTable[int]()
	s := arc.New(5, arc.WithAllocator(tr))

	h, err := table.InsertWeak(s.Downgrade())
	require.NoError(t, err)
	assert.Equal(t, 1, s.WeakCount())

	kind, _ := table.Kind(h)
	assert.Equal(t, arc.ClaimWeak, kind)

	_, err = table.Take(h)
	assert.True(t, hasKind(err, errors.KindKindMismatch), "weak entries cannot be taken")

	b, err := table.Borrow(h)
	require.NoError(t, err)
	assert.True(t, b.Equal(s))
	assert.Equal(t, 2, s.StrongCount())
	require.NoError(t, table.ReturnBorrow(h, b))
	assert.Equal(t, 1, s.StrongCount())

	s.Release()
	_, err = table.Borrow(h)
	assert.True(t, hasKind(err, errors.KindReleased), "value behind the weak entry is gone")

	require.NoError(t, table.Drop(h))
	assert.NoError(t, tr.CheckLeaks())
}

func TestTable_EmptyWeakEntry(t *testing.T) {
	table := NewTable[int]()

	h, err := table.InsertWeak(arc.NewWeak[int]())
	require.NoError(t, err)

	id, err := table.Identity(h)
	require.NoError(t, err)
	assert.True(t, id.IsZero())

	_, err = table.Borrow(h)
	assert.Error(t, err)
	assert.NoError(t, table.Drop(h))
}

func TestTable_BorrowBlocksDrop(t *testing.T) {
	var d dropCounter
	tr := block.NewTracker()
	table := NewTable[*dropCounter]()

	h, err := table.InsertStrong(arc.New(&d, arc.WithAllocator(tr)))
	require.NoError(t, err)

	b1, err := table.Borrow(h)
	require.NoError(t, err)
	b2, err := table.Borrow(h)
	require.NoError(t, err)

	n, _ := table.Borrows(h)
	assert.Equal(t, uint32(2), n)

	err = table.Drop(h)
	assert.True(t, hasKind(err, errors.KindOutstandingBorrow))
	_, err = table.Take(h)
	assert.True(t, hasKind(err, errors.KindOutstandingBorrow))

	require.NoError(t, table.ReturnBorrow(h, b1))
	require.NoError(t, table.ReturnBorrow(h, b2))
	assert.True(t, b1.Released())

	require.NoError(t, table.Drop(h))
	assert.Equal(t, 1, d.count, "value dropped with the last unit")
	assert.NoError(t, tr.CheckLeaks())
}

func TestTable_ReturnBorrowWrongHandle(t *testing.T) {
	tr := block.NewTracker()
	table := NewTable[int]()

	h1, _ := table.InsertStrong(arc.New(1, arc.WithAllocator(tr)))
	h2, _ := table.InsertStrong(arc.New(2, arc.WithAllocator(tr)))

	b, err := table.Borrow(h1)
	require.NoError(t, err)
	_, err = table.Borrow(h2)
	require.NoError(t, err)

	err = table.ReturnBorrow(h2, b)
	assert.True(t, hasKind(err, errors.KindInvalidInput))
	assert.False(t, b.Released(), "handle kept when the return is refused")

	require.NoError(t, table.ReturnBorrow(h1, b))
	assert.True(t, hasKind(table.ReturnBorrow(h1, b), errors.KindInvalidInput))

	// h2 still has a borrow outstanding; Close reports it and releases anyway
	err = table.Close()
	assert.True(t, hasKind(err, errors.KindOutstandingBorrow))
}

func TestTable_Observer(t *testing.T) {
	table := NewTable[int]()
	obs := &testObserver{}
	table.Subscribe(obs)

	s := arc.New(1, arc.WithAllocator(block.NewTracker()))
	id := s.Identity()
	h, _ := table.InsertStrong(s)
	b, _ := table.Borrow(h)
	_ = table.ReturnBorrow(h, b)
	_ = table.Drop(h)

	assert.Equal(t, []EventType{EventCreated, EventBorrowed, EventBorrowReturned, EventDropped}, obs.types())
	for _, e := range obs.events {
		assert.Equal(t, h, e.Handle)
		assert.Equal(t, id, e.Identity)
	}

	table.Unsubscribe(obs)
	h, _ = table.InsertStrong(arc.New(2, arc.WithAllocator(block.NewTracker())))
	assert.Len(t, obs.events, 4, "no events after Unsubscribe")
	_ = table.Drop(h)
}

func TestTable_FreeListReuse(t *testing.T) {
	table := NewTable[int]()
	tr := block.NewTracker()

	h1, _ := table.InsertStrong(arc.New(1, arc.WithAllocator(tr)))
	h2, _ := table.InsertStrong(arc.New(2, arc.WithAllocator(tr)))
	require.NoError(t, table.Drop(h1))

	h3, _ := table.InsertStrong(arc.New(3, arc.WithAllocator(tr)))
	assert.Equal(t, h1, h3)
	assert.NotEqual(t, h2, h3)

	var seen []Handle
	table.Each(func(h Handle, k arc.ClaimKind, _ rcell.Identity) bool {
		assert.Equal(t, arc.ClaimStrong, k)
		seen = append(seen, h)
		return true
	})
	assert.ElementsMatch(t, []Handle{h2, h3}, seen)

	require.NoError(t, table.Clear())
	assert.Equal(t, 0, table.Len())
	assert.NoError(t, tr.CheckLeaks())
}

func TestTable_ClearKeepsBorrowed(t *testing.T) {
	table := NewTable[int]()
	tr := block.NewTracker()

	h1, _ := table.InsertStrong(arc.New(1, arc.WithAllocator(tr)))
	_, _ = table.InsertStrong(arc.New(2, arc.WithAllocator(tr)))
	b, _ := table.Borrow(h1)

	err := table.Clear()
	assert.True(t, hasKind(err, errors.KindOutstandingBorrow))
	assert.Equal(t, 1, table.Len())

	require.NoError(t, table.ReturnBorrow(h1, b))
	require.NoError(t, table.Close())
	assert.NoError(t, tr.CheckLeaks())
}

func TestTable_Close(t *testing.T) {
	var d dropCounter
	table := NewTable[*dropCounter]()
	obs := &testObserver{}
	table.Subscribe(obs)

	_, _ = table.InsertStrong(arc.New(&d, arc.WithAllocator(block.NewTracker())))
	require.NoError(t, table.Close())
	assert.Equal(t, 1, d.count)
	assert.Equal(t, []EventType{EventCreated, EventDropped}, obs.types())

	s := arc.New(&dropCounter{}, arc.WithAllocator(block.NewTracker()))
	w := s.Downgrade()
	_, err := table.InsertStrong(s)
	assert.True(t, hasKind(err, errors.KindClosed))
	assert.False(t, w.Upgradable(), "failed insert releases the unit")
	w.Release()

	assert.NoError(t, table.Close(), "second Close is a no-op")
}

func TestTable_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	table := NewTable[int](WithLogger(zap.New(core)))

	h, _ := table.InsertStrong(arc.New(1, arc.WithAllocator(block.NewTracker())))
	require.NoError(t, table.Drop(h))

	assert.Equal(t, 1, logs.FilterMessage("entry created").Len())
	entries := logs.FilterMessage("entry dropped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "resource", entries[0].LoggerName)
	assert.Equal(t, uint64(h), uint64(entries[0].ContextMap()["handle"].(uint32)))
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "created", EventCreated.String())
	assert.Equal(t, "borrow_returned", EventBorrowReturned.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
