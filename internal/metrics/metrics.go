// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	LedgerTransitions *prometheus.CounterVec
	LedgerRejections  *prometheus.CounterVec
	AuthEvents        *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LedgerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timeclock",
			Subsystem: "ledger",
			Name:      "transitions_total",
			Help:      "Accepted attendance ledger transitions by event.",
		}, []string{"event"}),
		LedgerRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timeclock",
			Subsystem: "ledger",
			Name:      "rejected_transitions_total",
			Help:      "Refused attendance ledger transitions by event and reason.",
		}, []string{"event", "reason"}),
		AuthEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timeclock",
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Authentication events by kind and outcome.",
		}, []string{"kind", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timeclock",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status class.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "timeclock",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.LedgerTransitions,
		m.LedgerRejections,
		m.AuthEvents,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
