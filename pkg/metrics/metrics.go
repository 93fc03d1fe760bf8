// Package metrics exposes Prometheus instrumentation for the engine and the
// batch coordinator.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	NodeExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadpipe_node_executions_total",
			Help: "Node executions by node type and outcome.",
		},
		[]string{"node_type", "outcome"},
	)

	NodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadpipe_node_duration_seconds",
			Help:    "Node execution duration by node type.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"node_type"},
	)

	LeadsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadpipe_leads_processed_total",
			Help: "Leads processed by terminal status.",
		},
		[]string{"status"},
	)

	GenerationCost = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leadpipe_generation_cost_usd_total",
			Help: "Cumulative text-generation spend in USD.",
		},
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadpipe_batch_duration_seconds",
			Help:    "Campaign batch duration.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		},
	)
)

func init() {
	prometheus.MustRegister(NodeExecutions, NodeDuration, LeadsProcessed, GenerationCost, BatchDuration)
}

// ObserveNode records one node execution.
func ObserveNode(nodeType, outcome string, elapsed time.Duration) {
	NodeExecutions.WithLabelValues(nodeType, outcome).Inc()
	NodeDuration.WithLabelValues(nodeType).Observe(elapsed.Seconds())
}

// Handler serves the default registry in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server returns an HTTP server exposing /metrics on addr; the caller owns
// its lifecycle.
func Server(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
