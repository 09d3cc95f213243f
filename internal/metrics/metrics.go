// Package metrics holds the Prometheus instruments of the notes server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the notes API. Each instance
// owns its registry so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// Note metrics
	NotesCreated *prometheus.CounterVec
	NotesUpdated prometheus.Counter
	NotesDeleted prometheus.Counter
	NoteSize     *prometheus.HistogramVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		NotesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pagenotes_notes_created_total",
			Help: "Total number of notes created, by type",
		}, []string{"type"}),
		NotesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "pagenotes_notes_updated_total",
			Help: "Total number of text notes edited",
		}),
		NotesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "pagenotes_notes_deleted_total",
			Help: "Total number of notes deleted",
		}),
		NoteSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pagenotes_note_content_bytes",
			Help:    "Size of stored note content in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10), // 64B to ~16MB
		}, []string{"type"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pagenotes_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pagenotes_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
