// Package metrics exposes Prometheus collectors for the staffsearch service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staffsearch_crawl_pages_total",
			Help: "Total number of frontier tasks processed, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	crawlQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "staffsearch_crawl_queue_depth",
			Help: "Number of queued frontier tasks at last observation.",
		},
	)

	crawlActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "staffsearch_crawl_active_workers",
			Help: "Number of workers currently processing a frontier task.",
		},
	)

	profilesIndexedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "staffsearch_profiles_indexed_total",
			Help: "Total number of staff profiles written to the index.",
		},
	)

	profilesUnchangedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "staffsearch_profiles_unchanged_total",
			Help: "Total number of profile reprocessing runs stopped by the content hash gate.",
		},
	)

	embeddingBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "staffsearch_embedding_batches_total",
			Help: "Total number of batched embedding calls issued.",
		},
	)

	chunksIndexedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "staffsearch_chunks_indexed_total",
			Help: "Total number of chunks inserted into the index.",
		},
	)

	searchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staffsearch_search_requests_total",
			Help: "Total number of search and chat requests, labeled by kind.",
		},
		[]string{"kind"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "staffsearch_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and status.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "code"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTask increments the page counter for the given outcome
// (fetched, skipped, error).
func ObserveTask(outcome string) {
	crawlPagesTotal.WithLabelValues(outcome).Inc()
}

// SetQueueDepth records the current number of queued frontier tasks.
func SetQueueDepth(depth int64) {
	crawlQueueDepth.Set(float64(depth))
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	crawlActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	crawlActiveWorkers.Dec()
}

// ObserveProfileIndexed increments the indexed-profile counter.
func ObserveProfileIndexed(chunks int) {
	profilesIndexedTotal.Inc()
	chunksIndexedTotal.Add(float64(chunks))
}

// ObserveProfileUnchanged increments the hash-gate counter.
func ObserveProfileUnchanged() {
	profilesUnchangedTotal.Inc()
}

// ObserveEmbeddingBatch increments the embedding batch counter.
func ObserveEmbeddingBatch() {
	embeddingBatchesTotal.Inc()
}

// ObserveSearch increments the request counter for the given kind
// ("search" or "chat").
func ObserveSearch(kind string) {
	searchRequestsTotal.WithLabelValues(kind).Inc()
}

// ObserveHTTPRequest records an HTTP request latency sample.
func ObserveHTTPRequest(method string, code int, duration time.Duration) {
	httpRequestDurationSeconds.WithLabelValues(method, strconv.Itoa(code)).Observe(duration.Seconds())
}
