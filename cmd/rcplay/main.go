package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/rcell/block"
)

func main() {
	var (
		scenario    = flag.String("scenario", "basic", "Scenario to run ("+strings.Join(scenarioNames(), "|")+")")
		verbose     = flag.Bool("v", false, "Log every block lifecycle event")
		metrics     = flag.Bool("metrics", false, "Print collected metrics after the run")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger = l
	}
	defer func() { _ = logger.Sync() }()
	block.SetLogger(logger)

	env := newEnv(logger)

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(env); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	run, ok := scenarios[*scenario]
	if !ok {
		fmt.Fprintf(os.Stderr, "Usage: rcplay [-scenario %s] [-v] [-metrics]\n", strings.Join(scenarioNames(), "|"))
		fmt.Fprintln(os.Stderr, "       rcplay -i  (interactive mode)")
		os.Exit(1)
	}

	if err := runScenario(os.Stdout, env, *scenario, run, *metrics); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is the allocator stack shared by scenarios and the TUI.
type env struct {
	logger  *zap.Logger
	reg     *prometheus.Registry
	heap    *block.Heap
	tracker *block.Tracker
}

func newEnv(logger *zap.Logger) *env {
	reg := prometheus.NewRegistry()
	heap := block.NewHeap(
		block.WithHeapLogger(logger.Named("heap")),
		block.WithHeapMetrics(block.NewMetrics(reg)),
	)
	return &env{
		logger: logger,
		reg:    reg,
		heap:   heap,
		tracker: block.NewTracker(
			block.WithDelegate(heap),
			block.WithTrackerLogger(logger.Named("tracker")),
		),
	}
}

func runScenario(out io.Writer, e *env, name string, run scenarioFunc, showMetrics bool) error {
	fmt.Fprintf(out, "Scenario: %s\n\n", name)
	if err := run(out, e); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	stats := e.heap.Stats()
	fmt.Fprintf(out, "\nAllocations: %d\n", stats.Allocations)
	fmt.Fprintf(out, "Value drops: %d\n", e.tracker.ValueDrops())
	fmt.Fprintf(out, "Frees:       %d\n", e.tracker.Frees())

	if showMetrics {
		if err := printMetrics(out, e.reg); err != nil {
			return err
		}
	}

	if err := e.tracker.Err(); err != nil {
		return fmt.Errorf("lifecycle violations: %w", err)
	}
	if err := e.tracker.CheckLeaks(); err != nil {
		return err
	}
	fmt.Fprintln(out, "No leaks.")
	return nil
}

func printMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	fmt.Fprintf(out, "\nMetrics:\n")
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}
			lines = append(lines, fmt.Sprintf("  %s{%s} %g", mf.GetName(), strings.Join(labels, ","), v))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	return nil
}
