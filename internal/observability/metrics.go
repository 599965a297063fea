// Package observability provides Prometheus metrics for the ingestion
// and retrieval engine.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// LatencyBuckets covers local embedding (milliseconds) up to remote
// providers under rate limiting (tens of seconds).
var LatencyBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

var (
	// IngestsTotal counts document ingests by outcome.
	IngestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragindex_ingests_total",
			Help: "Document ingests",
		},
		[]string{"status"},
	)

	// ChunksIndexedTotal counts chunks written to the vector index.
	ChunksIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ragindex_chunks_indexed_total",
			Help: "Chunks indexed",
		},
	)

	// IngestDuration records ingest latency in seconds.
	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ragindex_ingest_duration_seconds",
			Help:    "Ingest duration",
			Buckets: LatencyBuckets,
		},
	)

	// DeletesTotal counts document deletions by outcome (ok, missing, error).
	DeletesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragindex_deletes_total",
			Help: "Document deletions",
		},
		[]string{"status"},
	)

	// SearchesTotal counts searches by outcome.
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragindex_searches_total",
			Help: "Searches",
		},
		[]string{"status"},
	)

	// SearchDuration records search latency in seconds.
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ragindex_search_duration_seconds",
			Help:    "Search duration",
			Buckets: LatencyBuckets,
		},
	)

	// EmbeddingRequestsTotal counts calls to the embedding provider.
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragindex_embedding_requests_total",
			Help: "Embedding provider requests",
		},
		[]string{"model", "status"},
	)

	// ProjectCounterUpdatesTotal counts project document counter changes by operation.
	ProjectCounterUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragindex_project_counter_updates_total",
			Help: "Project document counter updates",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		IngestsTotal,
		ChunksIndexedTotal,
		IngestDuration,
		DeletesTotal,
		SearchesTotal,
		SearchDuration,
		EmbeddingRequestsTotal,
		ProjectCounterUpdatesTotal,
	)
}

// Status maps an error to an outcome label.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// ObserveSince records the seconds elapsed since start on h.
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
