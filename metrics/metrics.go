// Package metrics provides Prometheus metrics for the Cloudflare API MCP
// server. It tracks tool call counts, latencies, and upstream API behavior.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "cloudflare_api_mcp"
)

var (
	// ToolCallsTotal counts MCP tool calls by tool name and status
	ToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "tool_calls_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// ToolCallDuration measures tool call latency distribution
	ToolCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "tool_call_duration_seconds",
		Help:      "Tool call latency distribution by tool",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"tool"})

	// ToolCallsInFlight tracks currently executing tool calls
	ToolCallsInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "tool_calls_in_flight",
		Help:      "Number of tool calls currently being processed",
	}, []string{"tool"})

	// PanicsRecovered counts recovered panics in tool handlers
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// UpstreamRequestsTotal counts Cloudflare API requests by method and status code
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "upstream_requests_total",
		Help:      "Total Cloudflare API requests by method and HTTP status",
	}, []string{"method", "status"})

	// UpstreamLatency measures Cloudflare API round-trip latency
	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "upstream_latency_seconds",
		Help:      "Cloudflare API round-trip latency by method",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	// CatalogTools tracks the number of tools derived from the API description
	CatalogTools = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "catalog_tools",
		Help:      "Number of tools generated from the API description",
	})
)

// RecordToolCall records a completed tool call with its duration and status
func RecordToolCall(tool string, duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
	ToolCallDuration.WithLabelValues(tool).Observe(duration)
}

// RecordUpstreamRequest records a Cloudflare API request. A statusCode of 0
// means the request never completed (network-level failure).
func RecordUpstreamRequest(method string, statusCode int, duration float64) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	UpstreamRequestsTotal.WithLabelValues(method, status).Inc()
	UpstreamLatency.WithLabelValues(method).Observe(duration)
}

// SetCatalogSize updates the catalog size gauge
func SetCatalogSize(n int) {
	CatalogTools.Set(float64(n))
}
