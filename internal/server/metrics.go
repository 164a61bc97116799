package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metricsOnce ensures metrics are only registered once per process;
// subsequent InitMetrics calls return the same instance.
var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// Metrics holds the Prometheus metrics for the filedrop HTTP surface.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec   // filedrop_http_requests_total{operation,status}
	RequestDuration *prometheus.HistogramVec // filedrop_http_request_duration_seconds{operation}
	BytesUploaded   prometheus.Counter       // filedrop_bytes_uploaded_total
	BytesDownloaded prometheus.Counter       // filedrop_bytes_downloaded_total
	StreamClients   prometheus.Gauge         // filedrop_stream_clients
}

// InitMetrics initializes the metrics against the given registry
// (DefaultRegisterer when nil).
func InitMetrics(registry prometheus.Registerer) *Metrics {
	metricsOnce.Do(func() {
		if registry == nil {
			registry = prometheus.DefaultRegisterer
		}
		metricsInstance = &Metrics{
			RequestsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
				Name: "filedrop_http_requests_total",
				Help: "Total HTTP requests by operation and status",
			}, []string{"operation", "status"}),

			RequestDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
				Name:    "filedrop_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"operation"}),

			BytesUploaded: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "filedrop_bytes_uploaded_total",
				Help: "Total bytes accepted through uploads",
			}),

			BytesDownloaded: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "filedrop_bytes_downloaded_total",
				Help: "Total bytes served through fetches",
			}),

			StreamClients: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
				Name: "filedrop_stream_clients",
				Help: "Currently connected live update stream clients",
			}),
		}
	})
	return metricsInstance
}

// statusRecorder wraps http.ResponseWriter to capture the HTTP status code.
// Not thread-safe; use within a single request handler only.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
		r.ResponseWriter.WriteHeader(code)
	}
}

// getStatus returns the recorded status, defaulting to 200 if WriteHeader
// was never called.
func (r *statusRecorder) getStatus() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// classifyStatus converts an HTTP status code to a metric status label.
func classifyStatus(httpStatus int) string {
	switch {
	case httpStatus >= 200 && httpStatus < 300:
		return "success"
	case httpStatus == http.StatusNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// instrument wraps a handler with request count and duration metrics.
func (s *Server) instrument(operation string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		next.ServeHTTP(rec, r)

		s.metrics.RequestsTotal.WithLabelValues(operation, classifyStatus(rec.getStatus())).Inc()
		s.metrics.RequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	})
}
