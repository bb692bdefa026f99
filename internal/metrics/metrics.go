// Package metrics owns the Prometheus registry and the collectors shared by
// the HTTP middleware and the ride services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups every collector the service exports.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPErrors    *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	RidesTotal    *prometheus.CounterVec
	OTPTotal      *prometheus.CounterVec
	SocketClients prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: reg,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_request_errors_total",
				Help: "Total number of HTTP requests answered with a 4xx or 5xx status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RidesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rides_events_total",
				Help: "Ride lifecycle events by outcome",
			},
			[]string{"event"},
		),
		OTPTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otp_operations_total",
				Help: "OTP sends and verifications by result",
			},
			[]string{"operation", "result"},
		),
		SocketClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "socket_connected_clients",
				Help: "Number of connected realtime clients",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPErrors,
		m.HTTPDuration,
		m.RidesTotal,
		m.OTPTotal,
		m.SocketClients,
	)

	return m
}

// RideEvent counts a ride lifecycle event. Safe on a nil receiver.
func (m *Metrics) RideEvent(event string) {
	if m == nil {
		return
	}
	m.RidesTotal.WithLabelValues(event).Inc()
}

// OTP counts an OTP operation. Safe on a nil receiver.
func (m *Metrics) OTP(operation, result string) {
	if m == nil {
		return
	}
	m.OTPTotal.WithLabelValues(operation, result).Inc()
}
