package server

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors reporting evaluation activity.
type Metrics struct {
	runDuration *prometheus.HistogramVec
	runsTotal   *prometheus.CounterVec
	runsActive  prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the package-level metrics instance registered with
// the global Prometheus registry. Collectors are created once to avoid
// duplicate registration panics when the server is constructed repeatedly.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// Registration errors panic, mirroring promauto semantics. Pass a fresh
// registry in tests that need isolated collectors.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bioeval",
			Subsystem: "harness",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of harness runs.",
			Buckets:   prometheus.ExponentialBuckets(30, 2, 10),
		},
		[]string{"status"},
	)
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bioeval",
			Subsystem: "harness",
			Name:      "runs_total",
			Help:      "Total harness runs by outcome.",
		},
		[]string{"status"},
	)
	runsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bioeval",
			Subsystem: "harness",
			Name:      "runs_active",
			Help:      "Number of harness runs currently executing.",
		},
	)

	collectors := []prometheus.Collector{runDuration, runsTotal, runsActive}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch collector.(type) {
				case *prometheus.HistogramVec:
					runDuration = already.ExistingCollector.(*prometheus.HistogramVec)
				case *prometheus.CounterVec:
					runsTotal = already.ExistingCollector.(*prometheus.CounterVec)
				case prometheus.Gauge:
					runsActive = already.ExistingCollector.(prometheus.Gauge)
				}
				continue
			}
			panic(err)
		}
	}

	return &Metrics{
		runDuration: runDuration,
		runsTotal:   runsTotal,
		runsActive:  runsActive,
	}
}

// ObserveRun records a completed harness run.
func (m *Metrics) ObserveRun(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.runsTotal.WithLabelValues(status).Inc()
}

// RunStarted marks a harness run as active.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsActive.Inc()
}

// RunFinished marks a harness run as no longer active.
func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.runsActive.Dec()
}
