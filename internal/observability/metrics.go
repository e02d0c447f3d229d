package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Tool invocation rate by tool name and outcome. Watch for: error vs success ratio per tool.
	ToolInvocationsTotal *prometheus.CounterVec

	// Tool handler latency per invocation. Watch for: p95 near the upstream timeout.
	ToolDuration *prometheus.HistogramVec

	// Open-Meteo API call rate. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Open-Meteo API latency per request. Watch for: p95 > 2s (upstream degradation), p99 near timeout.
	WeatherAPIDuration *prometheus.HistogramVec

	// Open-Meteo API errors by stable category (see client.CategorizeError).
	WeatherAPIErrorsTotal *prometheus.CounterVec

	// Time spent waiting on the upstream rate limiter. Watch for: sustained waits = limiter too tight.
	UpstreamThrottleWaitSeconds prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	ToolInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolInvocationsTotal",
			Help: "Total number of MCP tool invocations",
		},
		[]string{"tool", "outcome"},
	)
	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolDurationSeconds",
			Help:    "MCP tool handler latency in seconds (per invocation)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of Open-Meteo API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "Open-Meteo API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherAPIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiErrorsTotal",
			Help: "Open-Meteo API errors by category",
		},
		[]string{"category"},
	)
	UpstreamThrottleWaitSeconds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "upstreamThrottleWaitSecondsTotal",
			Help: "Cumulative seconds spent waiting on the upstream rate limiter",
		},
	)

	registry.MustRegister(
		ToolInvocationsTotal, ToolDuration,
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherAPIErrorsTotal,
		UpstreamThrottleWaitSeconds,
	)
}

// RecordToolInvocation records one tool invocation with its outcome label
// ("success", "invalid_input", "upstream_error", "error") and duration.
func RecordToolInvocation(tool, outcome string, seconds float64) {
	ToolInvocationsTotal.WithLabelValues(tool, outcome).Inc()
	ToolDuration.WithLabelValues(tool).Observe(seconds)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
