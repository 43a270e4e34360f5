package main

import (
	"fmt"
	"io"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/wippyai/rcell/arc"
	"github.com/wippyai/rcell/resource"
)

type scenarioFunc func(out io.Writer, e *env) error

var scenarios = map[string]scenarioFunc{
	"basic": scenarioBasic,
	"weak":  scenarioWeak,
	"race":  scenarioRace,
	"table": scenarioTable,
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// scenarioBasic walks one cell through two strong owners and one observer.
func scenarioBasic(out io.Writer, e *env) error {
	s1 := arc.New(10, arc.WithAllocator(e.tracker))
	w := s1.Downgrade()
	s2 := s1.Clone()
	fmt.Fprintln(out, "s1 = New(10), w = s1.Downgrade(), s2 = s1.Clone()")
	fmt.Fprintf(out, "  %s\n", s1)

	*s2.MutUnchecked() += 5
	fmt.Fprintf(out, "*s2 += 5 -> s1 sees %d\n", s1.Load())
	fmt.Fprintf(out, "s1 == s2: %t, w points at s1: %t\n", s1.Equal(s2), w.EqualStrong(s1))

	s1.Release()
	fmt.Fprintf(out, "release s1 -> %s\n", w)
	s2.Release()
	fmt.Fprintf(out, "release s2 -> %s\n", w)

	if _, ok := w.Upgrade(); ok {
		return fmt.Errorf("upgrade succeeded after the last strong handle was released")
	}
	fmt.Fprintf(out, "w.Upgrade() fails, w.StrongCount() = %d\n", w.StrongCount())
	w.Release()
	return nil
}

type note struct {
	text string
	out  io.Writer
}

func (n *note) Drop() {
	fmt.Fprintf(n.out, "  dropped note %q\n", n.text)
}

// scenarioWeak shows empty weak handles and guarded access.
func scenarioWeak(out io.Writer, e *env) error {
	empty := arc.NewWeak[*note]()
	fmt.Fprintf(out, "empty weak: upgradable=%t, %s\n", empty.Upgradable(), empty)

	s := arc.New(&note{text: "hello", out: out}, arc.WithAllocator(e.tracker))
	w := s.Downgrade()

	g, ok := w.Get()
	if !ok {
		return fmt.Errorf("guard unavailable while value alive")
	}
	s.Release()
	fmt.Fprintf(out, "owner released while guarded, value still %q\n", (*g.Ptr()).text)
	g.Release()

	if _, ok := w.Get(); ok {
		return fmt.Errorf("guard available after value dropped")
	}
	fmt.Fprintf(out, "after guard release: %s\n", w)
	w.Release()
	empty.Release()
	return nil
}

// scenarioRace hammers one shared cell from many goroutines.
func scenarioRace(out io.Writer, e *env) error {
	const workers = 64

	s := arc.New(arc.Locked[int]{}, arc.WithAllocator(e.tracker), arc.WithShared())
	w := s.Downgrade()

	var upgrades atomic.Int64
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		owner := s.Clone()
		g.Go(func() error {
			defer owner.Release()
			owner.MutUnchecked().With(func(v *int) { *v++ })
			return nil
		})
		g.Go(func() error {
			u, ok := w.Upgrade()
			if !ok {
				return nil
			}
			defer u.Release()
			upgrades.Add(1)
			u.MutUnchecked().With(func(v *int) { *v++ })
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	total := s.MutUnchecked().Load()
	fmt.Fprintf(out, "%d owners, %d upgrades, counter = %d\n", workers, upgrades.Load(), total)
	if want := workers + int(upgrades.Load()); total != want {
		return fmt.Errorf("counter = %d, want %d", total, want)
	}
	fmt.Fprintf(out, "counts after join: %+v\n", s.Counts())

	s.Release()
	w.Release()
	return nil
}

type eventPrinter struct {
	out io.Writer
}

func (p eventPrinter) OnResourceEvent(ev resource.Event) {
	fmt.Fprintf(p.out, "  [%s] handle=%d kind=%s identity=%s\n", ev.Type, ev.Handle, ev.Kind, ev.Identity)
}

// scenarioTable passes handles through an integer resource table.
func scenarioTable(out io.Writer, e *env) error {
	table := resource.NewTable[string](resource.WithLogger(e.logger))
	table.Subscribe(eventPrinter{out: out})

	s := arc.New("payload", arc.WithAllocator(e.tracker))
	hw, err := table.InsertWeak(s.Downgrade())
	if err != nil {
		return err
	}
	hs, err := table.InsertStrong(s)
	if err != nil {
		return err
	}

	b, err := table.Borrow(hw)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "borrowed %q through weak entry %d\n", b.Load(), hw)
	if err := table.Drop(hs); err != nil {
		return err
	}
	fmt.Fprintf(out, "strong entry dropped while borrowed: %s\n", b)
	if err := table.ReturnBorrow(hw, b); err != nil {
		return err
	}

	_, err = table.Borrow(hw)
	if err == nil {
		return fmt.Errorf("borrow succeeded after value dropped")
	}
	fmt.Fprintf(out, "borrow after drop: %v\n", err)

	return table.Close()
}
