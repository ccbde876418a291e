package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mcpshadow/internal/domain"
)

type PrometheusMetrics struct {
	scanDuration          *prometheus.HistogramVec
	recordsFound          *prometheus.GaugeVec
	skipped               *prometheus.CounterVec
	probeDuration         *prometheus.HistogramVec
	classificationLatency *prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		scanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpshadow_scan_duration_seconds",
				Help:    "Duration of discovery scans in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"platform", "status"},
		),
		recordsFound: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcpshadow_servers_detected",
				Help: "Number of servers found by the last scan, by source",
			},
			[]string{"source"},
		),
		skipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpshadow_skipped_total",
				Help: "Config files and processes skipped during scans, by error code",
			},
			[]string{"code"},
		),
		probeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpshadow_probe_duration_seconds",
				Help:    "Duration of tool catalog probes in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"source", "mode", "status"},
		),
		classificationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpshadow_classification_latency_seconds",
				Help:    "Latency of security classification calls in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider", "model", "status"},
		),
	}
}

func (p *PrometheusMetrics) ObserveScan(platform string, duration time.Duration, err error) {
	p.scanDuration.WithLabelValues(platform, string(domain.StatusOf(err))).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveRecords(source string, count int) {
	p.recordsFound.WithLabelValues(source).Set(float64(count))
}

func (p *PrometheusMetrics) ObserveSkipped(code domain.ErrorCode) {
	p.skipped.WithLabelValues(string(code)).Inc()
}

func (p *PrometheusMetrics) ObserveProbe(source string, mode domain.ProbeMode, duration time.Duration, ok bool) {
	status := domain.StatusSuccess
	if !ok {
		status = domain.StatusError
	}
	p.probeDuration.WithLabelValues(source, string(mode), string(status)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveClassification(provider string, model string, duration time.Duration, err error) {
	p.classificationLatency.WithLabelValues(provider, model, string(domain.StatusOf(err))).Observe(duration.Seconds())
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
