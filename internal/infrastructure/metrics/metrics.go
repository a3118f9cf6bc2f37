package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat API metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wander",
			Subsystem: "chat_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Chat turns by outcome
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wander",
			Subsystem: "chat_api",
			Name:      "turns_total",
			Help:      "Total chat turns processed",
		},
		[]string{"stream", "status"},
	)

	// Streamed fragments delivered to clients
	StreamFragmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wander",
			Subsystem: "chat_api",
			Name:      "stream_fragments_total",
			Help:      "Total streamed fragments delivered",
		},
	)

	// Weather tool invocations
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wander",
			Subsystem: "chat_api",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations requested by the model",
		},
		[]string{"tool", "status"},
	)

	// Provider errors
	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wander",
			Subsystem: "chat_api",
			Name:      "provider_errors_total",
			Help:      "Total model provider call failures",
		},
		[]string{"stage"},
	)

	// Conversations
	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wander",
			Subsystem: "chat_api",
			Name:      "conversations_created_total",
			Help:      "Total conversations created",
		},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wander",
			Subsystem: "chat_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Model inference duration
	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wander",
			Subsystem: "chat_api",
			Name:      "inference_duration_seconds",
			Help:      "Model inference duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stream"},
	)
)

// RecordRequest records one completed HTTP request.
func RecordRequest(method, endpoint string, status int, duration float64) {
	statusLabel := strconv.Itoa(status)
	RequestsTotal.WithLabelValues(method, endpoint, statusLabel).Inc()
	RequestDuration.WithLabelValues(method, endpoint, statusLabel).Observe(duration)
}

// RecordTurn records one chat turn outcome.
func RecordTurn(stream bool, status string) {
	TurnsTotal.WithLabelValues(strconv.FormatBool(stream), status).Inc()
}

// RecordToolCall records one tool invocation outcome.
func RecordToolCall(tool, status string) {
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
}
