// Package metrics defines the Prometheus collectors used by the indexer, the
// searcher and the query worker, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	DocsIndexedTotal prometheus.Counter
	StoresBuiltTotal *prometheus.CounterVec
	BuildDuration    prometheus.Histogram
	QueriesTotal     *prometheus.CounterVec
	QueryLatency     prometheus.Histogram
	HitsReturned     prometheus.Histogram
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	OpenStores       prometheus.Gauge
	MalformedSkipped prometheus.Counter
	CacheCircuitOpen prometheus.Gauge
	WorkerMessages   *prometheus.CounterVec
}

// New creates all collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests and one-shot tools usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tm_docs_indexed_total",
				Help: "Total sentences indexed into stores.",
			},
		),
		StoresBuiltTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tm_stores_built_total",
				Help: "Store builds by status (ok, error).",
			},
			[]string{"status"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tm_build_duration_seconds",
				Help:    "Wall time to build and seal one store.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tm_queries_total",
				Help: "Queries by result type (hit, zero_result, error).",
			},
			[]string{"result_type"},
		),
		QueryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tm_query_latency_seconds",
				Help:    "Multi-store query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
		),
		HitsReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tm_hits_returned",
				Help:    "Number of hits returned per query after pruning.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tm_cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tm_cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
		OpenStores: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tm_open_stores",
				Help: "Number of sealed stores currently open for search.",
			},
		),
		MalformedSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tm_malformed_records_skipped_total",
				Help: "Input records skipped because of format errors.",
			},
		),
		CacheCircuitOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tm_cache_circuit_open",
				Help: "1 while the result cache circuit breaker is open.",
			},
		),
		WorkerMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tm_worker_messages_total",
				Help: "Query messages handled by the worker by status (ok, decode_error, search_error, publish_error).",
			},
			[]string{"status"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.DocsIndexedTotal,
			m.StoresBuiltTotal,
			m.BuildDuration,
			m.QueriesTotal,
			m.QueryLatency,
			m.HitsReturned,
			m.CacheHitsTotal,
			m.CacheMissesTotal,
			m.OpenStores,
			m.MalformedSkipped,
			m.CacheCircuitOpen,
			m.WorkerMessages,
		)
	}
	return m
}

// Handler returns the Prometheus scrape HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
