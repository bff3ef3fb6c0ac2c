// Package observability provides Prometheus metrics.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromMetrics records service measurements in a private Prometheus registry.
type PromMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	panics   *prometheus.CounterVec
	samples  prometheus.Counter
}

// NewPromMetrics registers the service collectors plus Go and process collectors.
func NewPromMetrics(namespace string) *PromMetrics {
	if namespace == "" {
		namespace = "observe"
	}
	m := &PromMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"route", "method"}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_total",
			Help:      "Handler panics recovered by route.",
		}, []string{"route"}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_created_total",
			Help:      "Sample records created.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.latency,
		m.panics,
		m.samples,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest counts a request and records its latency.
func (m *PromMetrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(d.Seconds())
}

// IncPanic counts a recovered panic.
func (m *PromMetrics) IncPanic(route string) {
	if m == nil {
		return
	}
	m.panics.WithLabelValues(route).Inc()
}

// IncSampleCreated counts a created sample.
func (m *PromMetrics) IncSampleCreated() {
	if m == nil {
		return
	}
	m.samples.Inc()
}

// Handler serves the Prometheus text exposition.
func (m *PromMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
