// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// GatewayCallDuration tracks AI gateway prompt invocation latency.
	GatewayCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_call_duration_seconds",
			Help:    "AI gateway prompt invocation duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"prompt", "status"},
	)

	// GatewayCallsTotal tracks AI gateway invocations by outcome.
	GatewayCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_calls_total",
			Help: "Total AI gateway prompt invocations",
		},
		[]string{"prompt", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// TransitionsTotal tracks consultation pipeline transitions.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultation_transitions_total",
			Help: "Consultation pipeline transitions by outcome",
		},
		[]string{"from", "to", "outcome"},
	)

	// ActiveConsultations tracks pipelines held in memory.
	ActiveConsultations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "consultations_active",
			Help: "Number of consultation pipelines held in memory",
		},
	)

	// SessionsTotal tracks sessions created by type.
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_total",
			Help: "Total chat sessions created",
		},
		[]string{"type"},
	)

	// PersistenceTotal tracks session store writes issued by the journal.
	PersistenceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_persistence_total",
			Help: "Session store writes by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	// LookupCallsTotal tracks external lookup service calls.
	LookupCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_calls_total",
			Help: "External lookup service calls",
		},
		[]string{"service", "status"},
	)

	// LookupCacheTotal tracks lookup cache hits and misses.
	LookupCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_cache_total",
			Help: "Lookup cache results",
		},
		[]string{"service", "result"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// JournalPublishFailures tracks failed event journal publishes.
	JournalPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_publish_failures_total",
			Help: "Failed NATS journal publishes",
		},
		[]string{"kind"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordGatewayCall records metrics for a single prompt invocation.
func RecordGatewayCall(prompt, status string, duration float64) {
	GatewayCallDuration.WithLabelValues(prompt, status).Observe(duration)
	GatewayCallsTotal.WithLabelValues(prompt, status).Inc()
}

// RecordTokens records LLM token usage.
func RecordTokens(model string, tokensIn, tokensOut int) {
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordTransition records a pipeline transition.
func RecordTransition(from, to, outcome string) {
	TransitionsTotal.WithLabelValues(from, to, outcome).Inc()
}

// RecordPersistence records a session store write.
func RecordPersistence(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PersistenceTotal.WithLabelValues(operation, status).Inc()
}

// RecordLookup records an external lookup call.
func RecordLookup(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	LookupCallsTotal.WithLabelValues(service, status).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
