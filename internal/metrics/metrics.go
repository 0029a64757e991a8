// Package metrics provides Prometheus instrumentation for the chip
// distribution service.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DistributionsTotal counts computed distributions by operation and
	// feasibility.
	DistributionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chipdist_distributions_total",
		Help: "Total number of distributions computed",
	}, []string{"op", "feasible"})

	// ComputeLatency tracks time spent in the distribution engine.
	ComputeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chipdist_compute_latency_seconds",
		Help:    "Distribution computation latency in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"op"})

	// CacheHits and CacheMisses count result cache lookups per backend.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chipdist_cache_hits_total",
		Help: "Result cache hits",
	}, []string{"layer"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chipdist_cache_misses_total",
		Help: "Result cache misses",
	}, []string{"layer"})

	// InventoryValue is the nominal value of the current chip inventory.
	InventoryValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chipdist_inventory_value",
		Help: "Total nominal value of the chip inventory",
	})

	// InventoryUpdates counts accepted inventory replacements.
	InventoryUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chipdist_inventory_updates_total",
		Help: "Inventory replacements accepted",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chipdist_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chipdist_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chipdist_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCompute records one engine call.
func ObserveCompute(op string, start time.Time) {
	ComputeLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// RecordDistribution counts one computed distribution.
func RecordDistribution(op string, feasible bool) {
	DistributionsTotal.WithLabelValues(op, strconv.FormatBool(feasible)).Inc()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Route pattern keeps the path label low-cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack passes through to the underlying writer so websocket upgrades work
// behind this middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}
