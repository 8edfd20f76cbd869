// Package telemetry exposes Prometheus counters and histograms for the
// gateway's request path, tool invocations, and streaming event bus.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every metric the gateway records. Construct one with
// NewMetrics at startup and thread it through the HTTP handlers and
// execution engine.
type Metrics struct {
	// HTTPRequestCounter counts HTTP requests by route and status.
	// Labels: method, path, status_code
	HTTPRequestCounter *prometheus.CounterVec

	// HTTPRequestDuration measures HTTP request latency in seconds.
	// Labels: method, path, status_code
	HTTPRequestDuration *prometheus.HistogramVec

	// ChatRequestCounter counts /chat and /chat/stream completions by
	// outcome. Labels: mode (chat|stream), status (ok|error)
	ChatRequestCounter *prometheus.CounterVec

	// LLMRequestDuration measures model-provider call latency.
	// Labels: provider, model
	LLMRequestDuration *prometheus.HistogramVec

	// LLMTokensUsed tracks token consumption.
	// Labels: provider, model, type (prompt|completion)
	LLMTokensUsed *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations by outcome.
	// Labels: tool_name, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution latency in seconds.
	// Labels: tool_name
	ToolExecutionDuration *prometheus.HistogramVec

	// EventBusDepth tracks the number of buffered-but-unconsumed events
	// on a request's stream bus, sampled at Put time — a proxy for how
	// far a slow SSE client has fallen behind the producer.
	// Labels: none (gateway-wide gauge)
	EventBusDepth prometheus.Gauge

	// RateLimitRejections counts requests rejected by admission control.
	// Labels: reason (rate_limited)
	RateLimitRejections *prometheus.CounterVec
}

// NewMetrics creates and registers every metric with the default
// Prometheus registry. Call once at startup.
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentgateway_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentgateway_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"method", "path", "status_code"},
		),
		ChatRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentgateway_chat_requests_total",
				Help: "Total number of chat completions by mode and outcome",
			},
			[]string{"mode", "status"},
		),
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentgateway_llm_request_duration_seconds",
				Help:    "Duration of model-provider requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider", "model"},
		),
		LLMTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentgateway_llm_tokens_total",
				Help: "Total tokens consumed by provider, model, and kind",
			},
			[]string{"provider", "model", "type"},
		),
		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentgateway_tool_executions_total",
				Help: "Total tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentgateway_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"tool_name"},
		),
		EventBusDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "agentgateway_event_bus_depth",
				Help: "Number of buffered, unconsumed events across in-flight stream buses",
			},
		),
		RateLimitRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentgateway_rate_limit_rejections_total",
				Help: "Total number of requests rejected by admission control",
			},
			[]string{"reason"},
		),
	}
}
