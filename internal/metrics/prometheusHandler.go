package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var indexedChunks = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "indexed_chunks",
	Help: "Number of chunk vectors in the live index",
})

var ingestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "document_ingestions_total",
	Help: "Document ingestions labelled by outcome",
}, []string{"status"})

var answerCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "answer_cache_lookups_total",
	Help: "Answer cache lookups labelled by result",
}, []string{"result"})

var agentIterations = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "agent_iterations",
	Help:    "Think/act cycles used per agent answer.",
	Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
})

// HttpStatusRecorder remembers the status code written by the wrapped handler.
type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses (the MCP endpoint) working through the recorder.
func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *HttpStatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func SetIndexedChunks(n int) {
	indexedChunks.Set(float64(n))
}

func CaptureIngestion(status string) {
	ingestionsTotal.WithLabelValues(status).Inc()
}

func CaptureCacheLookup(hit bool) {
	if hit {
		answerCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	answerCacheLookups.WithLabelValues("miss").Inc()
}

func CaptureAgentIterations(n int) {
	agentIterations.Observe(float64(n))
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "ask_request_duration_seconds",
	Help:    "Total time spent answering a question.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"mode", "status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30, 120},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureRequestMetrics(mode string, status string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(mode, status).Observe(timeElapsed.Seconds())
}

var activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Worker goroutines currently embedding chunk batches",
})

func IncrementActiveWorkerCount() {
	activeWorkers.Inc()
}

func DecrementActiveWorkerCount() {
	activeWorkers.Dec()
}
