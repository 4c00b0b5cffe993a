package ade

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes import counters and timings for monitoring.
type Metrics struct {
	imagesProcessed *prometheus.CounterVec
	imagesFailed    *prometheus.CounterVec
	annotations     prometheus.Counter
	importDuration  prometheus.Histogram
}

// NewMetrics creates import metrics registered with reg. Pass
// prometheus.DefaultRegisterer to use the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		imagesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adekit",
			Subsystem: "import",
			Name:      "images_processed_total",
			Help:      "Images imported successfully, by subset.",
		}, []string{"subset"}),
		imagesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adekit",
			Subsystem: "import",
			Name:      "images_failed_total",
			Help:      "Images dropped because of per-image errors, by subset.",
		}, []string{"subset"}),
		annotations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "adekit",
			Subsystem: "import",
			Name:      "annotations_built_total",
			Help:      "Mask annotations produced across all imports.",
		}),
		importDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "adekit",
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of whole import runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

func (m *Metrics) observeImage(subset string, failed bool) {
	if m == nil {
		return
	}
	if failed {
		m.imagesFailed.WithLabelValues(subset).Inc()
	} else {
		m.imagesProcessed.WithLabelValues(subset).Inc()
	}
}

func (m *Metrics) observeAnnotations(n int) {
	if m == nil {
		return
	}
	m.annotations.Add(float64(n))
}

func (m *Metrics) observeDuration(seconds float64) {
	if m == nil {
		return
	}
	m.importDuration.Observe(seconds)
}
