package metrics

import "github.com/prometheus/client_golang/prometheus"

// Inference Prometheus metrics (embedding + generation boundary).
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchatbot",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchatbot",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchatbot",
			Name:      "generation_requests_total",
			Help:      "Total number of generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchatbot",
			Name:      "generation_request_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 180},
		},
		[]string{"provider", "model"},
	)

	ChunksIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragchatbot",
			Name:      "chunks_indexed_total",
			Help:      "Total chunks stored in the vector index",
		},
	)

	ChunksSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragchatbot",
			Name:      "chunks_skipped_total",
			Help:      "Chunks dropped during ingestion after an embedding failure",
		},
	)
)

var inferenceMetricsRegistered bool

// RegisterInferenceMetrics registers Prometheus inference metrics. Must be called once from main.
func RegisterInferenceMetrics() {
	if inferenceMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(ChunksIndexedTotal)
	prometheus.MustRegister(ChunksSkippedTotal)
	inferenceMetricsRegistered = true
}
