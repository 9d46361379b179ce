package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry so several gateways can run in
// one process without colliding on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	dispatchAttempts *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
	adapters         prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pagi_requests_total",
			Help: "Total requests",
		}, []string{"protocol", "status"}),
		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pagi_request_latency_seconds",
			Help:    "Request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"protocol"}),
		requestsInFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pagi_requests_in_flight",
			Help: "Requests currently being served",
		}, []string{"protocol"}),
		dispatchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pagi_dispatch_attempts_total",
			Help: "Adapter attempts made by the dispatcher",
		}, []string{"adapter_id", "outcome"}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pagi_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		}, []string{"protocol"}),
		adapters: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pagi_adapters_registered",
			Help: "Adapters currently registered",
		}),
	}
}

// IncRequests counts one finished request.
func (m *Metrics) IncRequests(protocol string, status int) {
	m.requestsTotal.WithLabelValues(protocol, strconv.Itoa(status)).Inc()
}

// ObserveLatency records a successful request's latency.
func (m *Metrics) ObserveLatency(protocol string, d time.Duration) {
	m.requestLatency.WithLabelValues(protocol).Observe(d.Seconds())
}

// InFlight increments the in-flight gauge and returns the matching decrement.
func (m *Metrics) InFlight(protocol string) func() {
	g := m.requestsInFlight.WithLabelValues(protocol)
	g.Inc()
	return g.Dec
}

func (m *Metrics) IncRateLimited(protocol string) {
	m.rateLimited.WithLabelValues(protocol).Inc()
}

// SetAdapters records the current directory size.
func (m *Metrics) SetAdapters(n int) {
	m.adapters.Set(float64(n))
}

// ObserveAttempt implements the dispatcher's attempt observer.
func (m *Metrics) ObserveAttempt(adapterID string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.dispatchAttempts.WithLabelValues(adapterID, outcome).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
