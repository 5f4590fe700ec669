package ingest

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/waveform-core/internal/coordinate"
)

const metricsNamespace = "waveform"

// Metrics holds the ingestion collectors.
type Metrics struct {
	// Runs counts finished runs by outcome: "ok" or a coordinate.Kind name.
	Runs *prometheus.CounterVec

	// Rows counts stored coordinate records by axis.
	Rows *prometheus.CounterVec

	// Duration observes run latency including the interval wait.
	Duration prometheus.Histogram

	// InFlight is the number of runs currently waiting or inserting.
	InFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Finished ingestion runs by outcome.",
		}, []string{"outcome"}),
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Coordinate rows stored by axis.",
		}, []string{"axis"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Run latency including the interval wait.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "runs_in_flight",
			Help:      "Runs currently waiting or inserting.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Runs, m.Rows, m.Duration, m.InFlight)
	}
	return m
}

func (m *Metrics) observe(res Result, err error) {
	outcome := "ok"
	if err != nil {
		outcome = coordinate.KindOf(err).String()
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.Duration.Observe(res.Duration.Seconds())
	for _, c := range res.Inserted {
		m.Rows.WithLabelValues(string(c.Axis)).Inc()
	}
}
