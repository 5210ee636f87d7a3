// Package metrics provides Prometheus instrumentation for the match engine.
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
	// CommandsTotal counts accepted engine commands by kind.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crease_commands_total",
		Help: "Total number of engine commands applied",
	}, []string{"kind"})

	// CommandLatency tracks command handling time, persistence excluded.
	CommandLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crease_command_latency_seconds",
		Help:    "Engine command latency in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"kind"})

	// CommandRejections counts commands refused by the engine, by code.
	CommandRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crease_command_rejections_total",
		Help: "Engine commands rejected, by rejection code",
	}, []string{"code"})

	// DeliveriesTotal counts recorded deliveries by outcome kind.
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crease_deliveries_total",
		Help: "Total deliveries recorded",
	}, []string{"outcome"})

	// WicketsTotal counts dismissals by type.
	WicketsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crease_wickets_total",
		Help: "Total wickets taken",
	}, []string{"dismissal"})

	// ActiveMatches tracks matches loaded in memory.
	ActiveMatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crease_active_matches",
		Help: "Number of matches with a live engine",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crease_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// PersistenceFailures counts snapshot or ledger writes that failed.
	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crease_persistence_failures_total",
		Help: "Failed store writes, by operation",
	}, []string{"op"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crease_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crease_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		HTTPRequestsTotal.WithLabelValues(r.Method, routePattern(r), strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, routePattern(r)).Observe(duration)
	})
}

// routePattern returns the matched chi route ("/api/v1/matches/{matchID}")
// so match IDs do not explode label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
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

// Hijack lets the WebSocket upgrade pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer cannot be hijacked")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
