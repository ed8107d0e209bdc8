package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Processing outcomes recorded by the event processor.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
)

// Registry holds the service's Prometheus collectors on a private registry.
type Registry struct {
	reg *prometheus.Registry

	EventsProcessed     *prometheus.CounterVec // outcome, kind
	MarkAppliedFailures prometheus.Counter
	ProcessDuration     prometheus.Histogram

	MessagesReceived *prometheus.CounterVec // queue
	MessagesFailed   *prometheus.CounterVec // queue
	MessagesAcked    *prometheus.CounterVec // queue
	ReceiveErrors    *prometheus.CounterVec // queue
}

// NewRegistry creates the collectors and registers them, with the Go and
// process collectors, on a fresh registry.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogsync_events_processed_total",
		Help: "Events handled by the processor, by outcome and canonical kind.",
	}, []string{"outcome", "kind"})
	markFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalogsync_mark_applied_failures_total",
		Help: "Idempotency record writes that failed for a reason other than a duplicate.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalogsync_event_processing_duration_seconds",
		Help:    "Time spent processing a single event.",
		Buckets: prometheus.DefBuckets,
	})
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogsync_messages_received_total",
		Help: "Messages pulled from the transport.",
	}, []string{"queue"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogsync_messages_failed_total",
		Help: "Messages left unacknowledged after a decode or processing error.",
	}, []string{"queue"})
	acked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogsync_messages_acked_total",
		Help: "Messages acknowledged (deleted) after successful processing.",
	}, []string{"queue"})
	receiveErrs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogsync_receive_errors_total",
		Help: "Transport receive failures that triggered a backoff.",
	}, []string{"queue"})

	r.MustRegister(
		processed, markFailures, duration, received, failed, acked, receiveErrs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		reg:                 r,
		EventsProcessed:     processed,
		MarkAppliedFailures: markFailures,
		ProcessDuration:     duration,
		MessagesReceived:    received,
		MessagesFailed:      failed,
		MessagesAcked:       acked,
		ReceiveErrors:       receiveErrs,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
