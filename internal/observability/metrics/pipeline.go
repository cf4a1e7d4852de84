package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics observes the claim pipeline stages: submission handling,
// result location and verification. Stage names are the label, not separate
// metric families, so dashboards can compare stages directly.
type PipelineMetrics struct {
	registry *prometheus.Registry
	service  string

	stageTotal      *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	stageInFlight   *prometheus.GaugeVec
	notificationLag *prometheus.HistogramVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claims",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Total pipeline stage executions by stage and status.",
		},
		[]string{"service", "stage", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "claims",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds by stage and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage", "status"},
	)
	stageInFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "claims",
			Subsystem: "pipeline",
			Name:      "stage_in_flight",
			Help:      "Number of in-flight pipeline stage executions.",
		},
		[]string{"service", "stage"},
	)
	notificationLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "claims",
			Subsystem: "pipeline",
			Name:      "notification_lag_seconds",
			Help:      "Delay between notification publication and handling start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(stageTotal, stageDuration, stageInFlight, notificationLag)

	return &PipelineMetrics{
		registry:        registry,
		service:         service,
		stageTotal:      stageTotal,
		stageDuration:   stageDuration,
		stageInFlight:   stageInFlight,
		notificationLag: notificationLag,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartStage(stage string) {
	m.stageInFlight.WithLabelValues(m.service, stage).Inc()
}

func (m *PipelineMetrics) FinishStage(stage string, duration time.Duration, err error) {
	m.stageInFlight.WithLabelValues(m.service, stage).Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.stageTotal.WithLabelValues(m.service, stage, status).Inc()
	m.stageDuration.WithLabelValues(m.service, stage, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveNotificationLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.notificationLag.WithLabelValues(m.service).Observe(lag.Seconds())
}
