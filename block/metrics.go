package block

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "rcell"
	blockSubsystem   = "block"
)

// Metrics exports allocator activity to Prometheus, labelled by value type.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Allocations *prometheus.CounterVec
	ValueDrops  *prometheus.CounterVec
	Frees       *prometheus.CounterVec
	LiveValues  *prometheus.GaugeVec
	LiveBlocks  *prometheus.GaugeVec
}

// NewMetrics creates the block metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Allocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: blockSubsystem,
				Name:      "allocations_total",
				Help:      "Total control blocks allocated by value type",
			},
			[]string{"type"},
		),
		ValueDrops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: blockSubsystem,
				Name:      "value_drops_total",
				Help:      "Total values dropped after their last strong handle was released",
			},
			[]string{"type"},
		),
		Frees: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: blockSubsystem,
				Name:      "frees_total",
				Help:      "Total control blocks freed after their last handle was released",
			},
			[]string{"type"},
		),
		LiveValues: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: blockSubsystem,
				Name:      "live_values",
				Help:      "Values currently held by at least one strong handle",
			},
			[]string{"type"},
		),
		LiveBlocks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: blockSubsystem,
				Name:      "live_blocks",
				Help:      "Control blocks not yet freed",
			},
			[]string{"type"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Allocations, m.ValueDrops, m.Frees, m.LiveValues, m.LiveBlocks)
	}
	return m
}

func (m *Metrics) allocated(goType string) {
	if m == nil {
		return
	}
	m.Allocations.WithLabelValues(goType).Inc()
	m.LiveValues.WithLabelValues(goType).Inc()
	m.LiveBlocks.WithLabelValues(goType).Inc()
}

func (m *Metrics) valueDropped(goType string) {
	if m == nil {
		return
	}
	m.ValueDrops.WithLabelValues(goType).Inc()
	m.LiveValues.WithLabelValues(goType).Dec()
}

func (m *Metrics) freed(goType string) {
	if m == nil {
		return
	}
	m.Frees.WithLabelValues(goType).Inc()
	m.LiveBlocks.WithLabelValues(goType).Dec()
}
