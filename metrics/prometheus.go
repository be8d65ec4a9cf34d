// Package metrics provides Prometheus-based recording of model calls, retry
// activity and agent run lifecycles.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements model.CallRecorder and runner.RunRecorder.
type PrometheusRecorder struct {
	modelCallsTotal   *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec
	retriesTotal      *prometheus.CounterVec
	runsActive        *prometheus.GaugeVec
	runsTotal         *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a recorder registered on the given
// registerer; pass nil to use the default registry.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		modelCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentweave_model_calls_total",
				Help: "Total number of model calls by provider, model and status",
			},
			[]string{"provider", "model", "status"},
		),
		modelCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentweave_model_call_duration_seconds",
				Help:    "Duration of model calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentweave_model_retries_total",
				Help: "Total number of model call retries by provider and status code",
			},
			[]string{"provider", "code"},
		),
		runsActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentweave_runs_active",
				Help: "Number of agent runs currently in flight",
			},
			[]string{"agent"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentweave_runs_total",
				Help: "Total number of agent runs by agent and status",
			},
			[]string{"agent", "status"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentweave_run_duration_seconds",
				Help:    "Duration of agent runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent"},
		),
	}
}

// ModelCall implements model.CallRecorder.
func (p *PrometheusRecorder) ModelCall(provider, name string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	p.modelCallsTotal.WithLabelValues(provider, name, status).Inc()
	p.modelCallDuration.WithLabelValues(provider, name).Observe(duration.Seconds())
}

// Retry implements model.CallRecorder.
func (p *PrometheusRecorder) Retry(provider string, statusCode int) {
	p.retriesTotal.WithLabelValues(provider, strconv.Itoa(statusCode)).Inc()
}

// RunStarted implements runner.RunRecorder.
func (p *PrometheusRecorder) RunStarted(agentName string) {
	p.runsActive.WithLabelValues(agentName).Inc()
}

// RunFinished implements runner.RunRecorder.
func (p *PrometheusRecorder) RunFinished(agentName string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	p.runsActive.WithLabelValues(agentName).Dec()
	p.runsTotal.WithLabelValues(agentName, status).Inc()
	p.runDuration.WithLabelValues(agentName).Observe(duration.Seconds())
}
