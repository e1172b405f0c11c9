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
			Name:    "console_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// StoreRequestDuration tracks data-service request duration.
	StoreRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_request_duration_seconds",
			Help:    "Data service request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"subject", "outcome"},
	)

	// OptimisticSendsTotal tracks messages applied optimistically before
	// store confirmation.
	OptimisticSendsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livechat_optimistic_sends_total",
			Help: "Messages applied to the cache before store confirmation",
		},
	)

	// RollbacksTotal tracks optimistic entries removed after a failed write.
	RollbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livechat_rollbacks_total",
			Help: "Optimistic entries rolled back after store failures",
		},
	)

	// ReconciliationsTotal tracks cache merge outcomes by kind: confirm,
	// echo, duplicate, insert.
	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_reconciliations_total",
			Help: "Cache reconciliation outcomes",
		},
		[]string{"kind"},
	)

	// RealtimeEventsTotal tracks row events delivered by the push channel.
	RealtimeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_realtime_events_total",
			Help: "Row events received from the realtime channel",
		},
		[]string{"table", "op"},
	)

	// LifecycleTransitionsTotal tracks conversation lifecycle transitions.
	LifecycleTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_lifecycle_transitions_total",
			Help: "Conversation lifecycle transitions",
		},
		[]string{"transition"},
	)

	// ActiveSessions tracks live operator sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livechat_sessions_active",
			Help: "Number of live operator sessions",
		},
	)

	// StateStreamsActive tracks active SSE state streams.
	StateStreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livechat_state_streams_active",
			Help: "Number of active session state streams",
		},
	)

	// SuggestionDuration tracks LLM reply suggestion latency.
	SuggestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suggestion_duration_seconds",
			Help:    "Reply suggestion generation duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordStoreRequest records metrics for a data-service request.
func RecordStoreRequest(subject string, ok bool, duration float64) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	StoreRequestDuration.WithLabelValues(subject, outcome).Observe(duration)
}
