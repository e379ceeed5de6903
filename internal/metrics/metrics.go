package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for dispatched requests and runner activity.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TransportErrors *prometheus.CounterVec
	SavesTotal      *prometheus.CounterVec
	EventsPublished prometheus.Counter
}

// New creates collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httpkit_requests_total",
				Help: "Total number of dispatched HTTP requests",
			},
			[]string{"method", "status_class"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "httpkit_request_duration_seconds",
				Help:    "Dispatched request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		TransportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httpkit_transport_errors_total",
				Help: "Requests that failed before a response was received",
			},
			[]string{"method"},
		),
		SavesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httpkit_saves_total",
				Help: "Response bodies handled by the save step",
			},
			[]string{"result"},
		),
		EventsPublished: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "httpkit_events_published_total",
				Help: "Response events accepted by at least one publisher",
			},
		),
	}
}

// Observe records one dispatched request. Its signature matches httpclient.Observer.
func (m *Metrics) Observe(method string, status int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		m.TransportErrors.WithLabelValues(method).Inc()
		return
	}
	m.RequestsTotal.WithLabelValues(method, StatusClass(status)).Inc()
}

// RecordSave counts a save outcome ("written", "duplicate", "skipped", "failed").
func (m *Metrics) RecordSave(result string) {
	if m == nil {
		return
	}
	m.SavesTotal.WithLabelValues(result).Inc()
}

// RecordPublished counts an event delivered downstream.
func (m *Metrics) RecordPublished() {
	if m == nil {
		return
	}
	m.EventsPublished.Inc()
}

// Handler exposes the private registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// StatusClass buckets a status code as "2xx", "4xx" and so on.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "invalid"
	}
	return strconv.Itoa(status/100) + "xx"
}
