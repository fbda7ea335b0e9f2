package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeWritten  = "written"
	OutcomeNoop     = "noop"
	OutcomeConflict = "conflict"
)

type Manager struct {
	// counters
	CounterRequests         *prometheus.CounterVec
	CounterAdaptations      *prometheus.CounterVec
	CounterPatternRecompute *prometheus.CounterVec
	CounterDecouplingCache  *prometheus.CounterVec
	CounterRequestPanic     prometheus.Counter

	// gauges
	GaugeCTL prometheus.Gauge
	GaugeATL prometheus.Gauge
	GaugeTSB prometheus.Gauge

	// histograms
	HistRequestDuration    prometheus.Histogram
	HistLoadSeriesDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("pedalcoach", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("pedalcoach", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming API requests",
		}, []string{"method", "status"}),
		CounterAdaptations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "adaptations_detected",
			Help:      "Adaptations detected, by type",
		}, []string{"type"}),
		CounterPatternRecompute: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pattern_recomputes",
			Help:      "Pattern recomputations, by outcome",
		}, []string{"outcome"}),
		CounterDecouplingCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "decoupling_cache",
			Help:      "Decoupling cache lookups, by result",
		}, []string{"result"}),
		CounterRequestPanic: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handle_request_panic",
			Help:      "The total number of serve request panics",
		}),

		GaugeCTL: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ctl",
			Help:      "Chronic training load of the most recent load series",
		}),
		GaugeATL: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "atl",
			Help:      "Acute training load of the most recent load series",
		}),
		GaugeTSB: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tsb",
			Help:      "Training stress balance of the most recent load series",
		}),

		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			Name:      "request_duration_seconds",
			Help:      "Total duration of API requests in seconds",
		}),
		HistLoadSeriesDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			Name:      "load_series_duration_seconds",
			Help:      "Time spent computing a CTL/ATL/TSB series",
		}),
	}
}
