// Package metrics exposes Prometheus instrumentation for the dose engine
// and the HTTP surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	DosesConfirmed prometheus.Counter
	DosesSkipped   prometheus.Counter
	RemindersSent  prometheus.Counter
	Medications    prometheus.Gauge
	LowStock       prometheus.Gauge
	HTTPRequests   *prometheus.CounterVec
}

// New builds a Metrics instance with its own registry so tests can create
// them freely without duplicate-registration panics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		DosesConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medtrack_doses_confirmed_total",
			Help: "Doses confirmed by the user.",
		}),
		DosesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medtrack_doses_skipped_total",
			Help: "Doses skipped by the user.",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medtrack_reminders_sent_total",
			Help: "Reminder notifications triggered by the scheduler.",
		}),
		Medications: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "medtrack_medications",
			Help: "Medications currently tracked.",
		}),
		LowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "medtrack_medications_low_stock",
			Help: "Medications at or below their low-stock threshold.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medtrack_http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
	}

	reg.MustRegister(
		m.DosesConfirmed,
		m.DosesSkipped,
		m.RemindersSent,
		m.Medications,
		m.LowStock,
		m.HTTPRequests,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
