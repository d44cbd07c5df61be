package retrieval

import "github.com/prometheus/client_golang/prometheus"

// Metrics captures retrieval-level counters. Implementations must be safe
// for concurrent use.
type Metrics interface {
	RetrievalStarted()
	RetrievalFinished(outcome string, seconds float64)
}

// NoopMetrics implements Metrics without emitting anything.
type NoopMetrics struct{}

func (NoopMetrics) RetrievalStarted()                {}
func (NoopMetrics) RetrievalFinished(string, float64) {}

// PromMetrics implements Metrics backed by Prometheus collectors.
type PromMetrics struct {
	inFlight prometheus.Gauge
	finished *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewPromMetrics registers retrieval collectors on reg under the given
// namespace.
func NewPromMetrics(namespace string, reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "retrievals_in_flight",
			Help:      "Retrievals currently running",
		}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Completed retrievals by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Wall-clock retrieval duration",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
	reg.MustRegister(m.inFlight, m.finished, m.duration)
	return m
}

func (m *PromMetrics) RetrievalStarted() {
	m.inFlight.Inc()
}

func (m *PromMetrics) RetrievalFinished(outcome string, seconds float64) {
	m.inFlight.Dec()
	m.finished.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
}
