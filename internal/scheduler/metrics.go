package scheduler

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors reporting dispatcher activity.
type Metrics struct {
	tickDuration prometheus.Histogram
	dispatches   *prometheus.CounterVec
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// defaultMetrics returns the package-level metrics instance registered with
// the global Prometheus registry. Created once to avoid duplicate
// registration panics when the dispatcher is instantiated multiple times.
func defaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// Pass a fresh registry when unique metric names are required, for example
// in tests. Registration errors panic, mirroring promauto semantics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "trendpub",
		Subsystem: "scheduler",
		Name:      "tick_duration_seconds",
		Help:      "Wall time of each scheduled dispatch tick.",
		Buckets:   prometheus.DefBuckets,
	})
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trendpub",
		Subsystem: "scheduler",
		Name:      "dispatches_total",
		Help:      "Scheduled dispatch outcomes by result.",
	}, []string{"result"})

	reg.MustRegister(tickDuration, dispatches)
	return &Metrics{tickDuration: tickDuration, dispatches: dispatches}
}

func (m *Metrics) observeTick(start time.Time) {
	m.tickDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) countDispatch(result string) {
	m.dispatches.WithLabelValues(result).Inc()
}
