// Package obsmetrics exposes the daemon's own health as Prometheus metrics:
// mailbox depth, scheduler job latency, and report cardinality rejections.
// This is self-observability of the framework, separate from the StatsD-fed
// domain metric reports that get staged and exported as MAR entries.
//
// Every metric in Registry is registered and served, but only the HTTP
// request metrics are updated (by internal/httpapi.Server); nothing in this
// repository sets the mailbox, scheduler or report metrics.
package obsmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every self-observability metric the daemon publishes. A
// non-default prometheus.Registry is used so tests can construct one per
// case without colliding with the package-global registry.
type Registry struct {
	registry *prometheus.Registry

	MailboxDepth       *prometheus.GaugeVec
	MailboxDelivered   *prometheus.CounterVec
	SchedulerJobLatency prometheus.Histogram
	ReportKeysDropped   *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRegistry builds and registers every metric, ready to be scraped.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.MailboxDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memfaultd_mailbox_depth",
			Help: "Number of envelopes queued in a service mailbox",
		},
		[]string{"service"},
	)

	r.MailboxDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memfaultd_mailbox_delivered_total",
			Help: "Total envelopes delivered to a service mailbox",
		},
		[]string{"service"},
	)

	r.SchedulerJobLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memfaultd_scheduler_job_latency_seconds",
			Help:    "Delay between a scheduled job's target time and its actual run time",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	r.ReportKeysDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memfaultd_report_keys_dropped_total",
			Help: "Metric keys rejected from a report for exceeding its cardinality budget",
		},
		[]string{"report"},
	)

	r.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memfaultd_http_requests_total",
			Help: "Requests served by the loopback HTTP API, by path and status",
		},
		[]string{"path", "status"},
	)

	r.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memfaultd_http_request_duration_seconds",
			Help:    "Latency of requests served by the loopback HTTP API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	r.registry.MustRegister(
		r.MailboxDepth,
		r.MailboxDelivered,
		r.SchedulerJobLatency,
		r.ReportKeysDropped,
		r.HTTPRequestsTotal,
		r.HTTPRequestDuration,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
