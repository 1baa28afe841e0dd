package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector exposes the Prometheus metrics the pipeline and its HTTP
// surface emit.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	stageCallsTotal     *prometheus.CounterVec
	pipelineDuration    *prometheus.HistogramVec
	retriesTotal        *prometheus.CounterVec
	circuitState        *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector registers every series under namespace and returns a ready
// Collector.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{logger: logger.With(zap.String("component", "metrics"))}

	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.stageCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_calls_total",
			Help:      "Total number of per-model stage calls, by outcome",
		},
		[]string{"stage", "provider", "outcome"},
	)

	c.pipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end pipeline duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	c.retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Total number of Resilient Wrapper retry attempts",
		},
		[]string{"provider"},
	)

	c.circuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_state",
			Help:      "Circuit breaker state per provider (0=closed, 1=open, 2=half_open)",
		},
		[]string{"provider"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordHTTPRequest records one completed HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordStageCall records one model's outcome within one stage.
func (c *Collector) RecordStageCall(stage, provider, outcome string) {
	c.stageCallsTotal.WithLabelValues(stage, provider, outcome).Inc()
}

// RecordPipelineDuration records one pipeline run's total wall-clock time.
func (c *Collector) RecordPipelineDuration(outcome string, duration time.Duration) {
	c.pipelineDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordRetry records one Resilient Wrapper retry attempt for a provider.
func (c *Collector) RecordRetry(provider string) {
	c.retriesTotal.WithLabelValues(provider).Inc()
}

// SetCircuitState publishes a provider's current breaker state as a gauge.
func (c *Collector) SetCircuitState(provider string, state int) {
	c.circuitState.WithLabelValues(provider).Set(float64(state))
}

func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
