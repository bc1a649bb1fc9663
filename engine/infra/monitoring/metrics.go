// Package monitoring exposes the orchestration metrics over Prometheus.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/toxichat/toxichat/engine/llm"
)

// Service owns the metric registry and implements llm.Recorder.
type Service struct {
	registry *prometheus.Registry

	remoteCalls      *prometheus.CounterVec
	remoteCallTime   *prometheus.HistogramVec
	endpointFailures *prometheus.CounterVec
	toolExecutions   *prometheus.CounterVec
}

// NewService creates the metrics service with its own registry, so tests can
// run several instances without collisions.
func NewService() *Service {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Service{
		registry: registry,
		remoteCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "toxichat_remote_calls_total",
			Help: "Remote generate calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		remoteCallTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "toxichat_remote_call_duration_seconds",
			Help:    "Remote generate call latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		endpointFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "toxichat_endpoint_failures_total",
			Help: "Classified endpoint failures by kind.",
		}, []string{"kind"}),
		toolExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "toxichat_tool_executions_total",
			Help: "Tool executions by tool name and outcome.",
		}, []string{"tool", "outcome"}),
	}
}

func (s *Service) RecordRemoteCall(endpoint, outcome string, duration time.Duration) {
	s.remoteCalls.WithLabelValues(endpoint, outcome).Inc()
	s.remoteCallTime.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (s *Service) RecordEndpointFailure(kind llm.FailureKind) {
	s.endpointFailures.WithLabelValues(string(kind)).Inc()
}

func (s *Service) RecordToolExecution(tool string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	s.toolExecutions.WithLabelValues(tool, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
