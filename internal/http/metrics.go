package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides Prometheus metrics for transport calls. It is safe for
// concurrent use and may be shared by several clients.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
}

// NewMetrics creates the collectors on registerer. Collectors already
// registered by an earlier call are reused.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	return &Metrics{
		requestsTotal: register(registerer, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restcompose_requests_total",
				Help: "Total number of transport calls made",
			},
			[]string{"method", "status_code"},
		)),
		requestDuration: register(registerer, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "restcompose_request_duration_seconds",
				Help:    "Duration of transport calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code"},
		)),
		requestsInFlight: register(registerer, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "restcompose_requests_in_flight",
				Help: "Number of transport calls currently in flight",
			},
			[]string{"method"},
		)),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing
		}
	}

	panic(err)
}

// begin marks a call as in flight and returns the function recording its
// outcome. A status code of 0 means no response was received.
func (m *Metrics) begin(method string) func(statusCode int) {
	if m == nil {
		return func(int) {}
	}

	start := time.Now()

	m.requestsInFlight.WithLabelValues(method).Inc()

	return func(statusCode int) {
		m.requestsInFlight.WithLabelValues(method).Dec()

		status := "error"
		if statusCode > 0 {
			status = strconv.Itoa(statusCode)
		}

		m.requestsTotal.WithLabelValues(method, status).Inc()
		m.requestDuration.WithLabelValues(method, status).Observe(time.Since(start).Seconds())
	}
}
