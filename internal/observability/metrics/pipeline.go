package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics tracks per-file and per-phase processing outcomes. The
// worker serves them on its metrics port.
type PipelineMetrics struct {
	registry *prometheus.Registry

	filesTotal    *prometheus.CounterVec
	fileDuration  *prometheus.HistogramVec
	phaseDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aasx",
			Subsystem: "etl",
			Name:      "files_total",
			Help:      "Total processed package files by status.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"status"},
	)
	fileDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aasx",
			Subsystem: "etl",
			Name:      "file_duration_seconds",
			Help:      "End-to-end file processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"status"},
	)
	phaseDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aasx",
			Subsystem: "etl",
			Name:      "phase_duration_seconds",
			Help:      "Phase duration in seconds by phase name.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"phase"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aasx",
			Subsystem: "etl",
			Name:      "files_in_flight",
			Help:      "Number of package files currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(filesTotal, fileDuration, phaseDuration, inFlight)

	return &PipelineMetrics{
		registry:      registry,
		filesTotal:    filesTotal,
		fileDuration:  fileDuration,
		phaseDuration: phaseDuration,
		inFlight:      inFlight,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartFile() {
	m.inFlight.Inc()
}

func (m *PipelineMetrics) ObserveFile(status string, duration time.Duration) {
	m.filesTotal.WithLabelValues(status).Inc()
	m.fileDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObservePhase(phase string, duration time.Duration) {
	m.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

func (m *PipelineMetrics) FinishFile() {
	m.inFlight.Dec()
}
