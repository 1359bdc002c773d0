// Package metrics records workflow and HTTP activity in a Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/newsroom-workflow/internal/application/port"
)

const namespace = "newsroom_workflow"

// Recorder implements port.WorkflowMetrics on its own registry
type Recorder struct {
	registry *prometheus.Registry

	transitionsTotal *prometheus.CounterVec
	rejectedTotal    *prometheus.CounterVec
	bulkItemsTotal   *prometheus.CounterVec
	scheduledTotal   *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// NewRecorder creates a recorder with Go runtime and process collectors registered
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		transitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Applied workflow transitions by from status, to status and action",
		}, []string{"from", "to", "action"}),

		rejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_rejected_total",
			Help:      "Rejected transition requests by action and error kind",
		}, []string{"action", "kind"}),

		bulkItemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_items_total",
			Help:      "Bulk transition items by action and outcome (success or failure)",
		}, []string{"action", "outcome"}),

		scheduledTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_publications_total",
			Help:      "Scheduled publications attempted by the background publisher, by outcome",
		}, []string{"outcome"}),

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
	}
}

// ObserveTransition counts an applied transition
func (r *Recorder) ObserveTransition(from, to, action string) {
	r.transitionsTotal.WithLabelValues(from, to, action).Inc()
}

// ObserveRejected counts a rejected transition request
func (r *Recorder) ObserveRejected(action, kind string) {
	r.rejectedTotal.WithLabelValues(sanitize(action), kind).Inc()
}

// ObserveBulkItem counts one bulk item outcome
func (r *Recorder) ObserveBulkItem(action, outcome string) {
	r.bulkItemsTotal.WithLabelValues(sanitize(action), outcome).Inc()
}

// ObserveScheduledPublish counts one background publication attempt
func (r *Recorder) ObserveScheduledPublish(outcome string) {
	r.scheduledTotal.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one served HTTP request
func (r *Recorder) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.requestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// sanitize keeps unknown client input from creating unbounded label values
func sanitize(action string) string {
	if action == "" {
		return "none"
	}
	if len(action) > 32 {
		return "invalid"
	}
	return action
}

// Verify interface compliance
var _ port.WorkflowMetrics = (*Recorder)(nil)
