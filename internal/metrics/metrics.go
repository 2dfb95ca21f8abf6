package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide request and error counters. It is
// constructed once at startup and passed into handlers and services
// explicitly; there is no ambient global registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests prometheus.Counter
	Errors   prometheus.Counter
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "url_shortener_requests_total",
		Help: "Total number of requests",
	})
	errors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "url_shortener_errors_total",
		Help: "Total number of errors",
	})

	registry.MustRegister(requests, errors)

	return &Metrics{
		registry: registry,
		Requests: requests,
		Errors:   errors,
	}
}

// Handler returns an http.Handler serving the registry in the Prometheus
// text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
