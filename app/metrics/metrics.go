// Package metrics defines the Prometheus collectors used by ingestion runs
// and the API, registered on a private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	ItemsCollected   *prometheus.CounterVec
	CollectorResults *prometheus.CounterVec
	Summaries        *prometheus.CounterVec
	ItemsSaved       *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	Runs             *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ItemsCollected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "content_items_collected_total",
				Help: "Canonical items collected per source.",
			},
			[]string{"source"},
		),
		CollectorResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "content_collector_results_total",
				Help: "Collector outcomes per source and status (active, disabled, failed, simulated).",
			},
			[]string{"source", "status"},
		),
		Summaries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "content_summaries_total",
				Help: "Summarization attempts by outcome.",
			},
			[]string{"outcome"},
		),
		ItemsSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "content_items_saved_total",
				Help: "New records persisted per source.",
			},
			[]string{"source"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "content_ingest_run_duration_seconds",
				Help:    "Duration of full ingestion runs in seconds.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "content_ingest_runs_total",
				Help: "Ingestion runs by outcome (success, error).",
			},
			[]string{"outcome"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by route and status.",
			},
			[]string{"route", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ItemsCollected,
		m.CollectorResults,
		m.Summaries,
		m.ItemsSaved,
		m.RunDuration,
		m.Runs,
		m.HTTPRequests,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
