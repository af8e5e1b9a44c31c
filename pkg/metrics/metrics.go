package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder tracks sync pipeline counters and gauges. Registered with the
// default Prometheus registry so the exporter picks them up.
type Recorder struct {
	syncAttempts   *prometheus.CounterVec
	syncDispatch   *prometheus.HistogramVec
	reconcileRuns  *prometheus.CounterVec
	reconcileDrift *prometheus.CounterVec
	sseClients     *prometheus.GaugeVec
	httpRequests   *prometheus.CounterVec

	mu sync.RWMutex
}

// NewRecorder creates and registers the recorder
func NewRecorder() *Recorder {
	r := &Recorder{
		syncAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espace_sync_attempts_total",
				Help: "Sync dispatch attempts by result",
			},
			[]string{"result"}, // "succeeded", "failed", "dead"
		),
		syncDispatch: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "espace_sync_dispatch_seconds",
				Help:    "Sync dispatch duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"op"},
		),
		reconcileRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espace_reconcile_runs_total",
				Help: "Pull-sync reconciliation runs by result",
			},
			[]string{"result"}, // "ok", "error"
		),
		reconcileDrift: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espace_reconcile_drift_total",
				Help: "Drifted articles detected during pull-sync by kind",
			},
			[]string{"kind"}, // "missing", "stale", "orphaned"
		),
		sseClients: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "espace_sse_clients",
				Help: "Connected SSE clients by store",
			},
			[]string{"store"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espace_http_requests_total",
				Help: "HTTP requests by method, endpoint and status",
			},
			[]string{"method", "endpoint", "status"},
		),
	}

	prometheus.MustRegister(r.syncAttempts)
	prometheus.MustRegister(r.syncDispatch)
	prometheus.MustRegister(r.reconcileRuns)
	prometheus.MustRegister(r.reconcileDrift)
	prometheus.MustRegister(r.sseClients)
	prometheus.MustRegister(r.httpRequests)

	return r
}

// RecordSyncAttempt records one dispatch outcome
func (r *Recorder) RecordSyncAttempt(result string) {
	r.syncAttempts.WithLabelValues(result).Inc()
}

// RecordDispatchDuration records how long one dispatch took
func (r *Recorder) RecordDispatchDuration(op string, seconds float64) {
	r.syncDispatch.WithLabelValues(op).Observe(seconds)
}

// RecordReconcileRun records one pull-sync run
func (r *Recorder) RecordReconcileRun(result string) {
	r.reconcileRuns.WithLabelValues(result).Inc()
}

// RecordReconcileDrift records drifted articles found during pull-sync
func (r *Recorder) RecordReconcileDrift(kind string, count int) {
	if count > 0 {
		r.reconcileDrift.WithLabelValues(kind).Add(float64(count))
	}
}

// SSEClientConnected adjusts the per-store SSE client gauge
func (r *Recorder) SSEClientConnected(storeID string) {
	r.sseClients.WithLabelValues(storeID).Inc()
}

// SSEClientDisconnected adjusts the per-store SSE client gauge
func (r *Recorder) SSEClientDisconnected(storeID string) {
	r.sseClients.WithLabelValues(storeID).Dec()
}

// Middleware returns HTTP middleware that counts requests
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, req)
		r.httpRequests.WithLabelValues(req.Method, req.URL.Path, fmt.Sprintf("%d", rw.statusCode)).Inc()
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Flush forwards flushes so SSE keeps working behind the middleware
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
