package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docwindow_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docwindow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Metrics records per-request Prometheus counters and latency histograms.
// Paths are normalized to their window-level shape so document and row ids
// do not blow up label cardinality.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			normalizedPath := normalizeMetricsPath(r.URL.Path)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the original ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizeMetricsPath keeps the window id (bounded set, useful label) but
// collapses document, tab and row ids to placeholders.
// /api/window/sales-order/1234/lines/5 → /api/window/sales-order/{documentId}/{tabId}/{rowId}
func normalizeMetricsPath(path string) string {
	const windowPrefix = "/api/window/"
	if !strings.HasPrefix(path, windowPrefix) {
		return path
	}

	segments := strings.Split(strings.TrimPrefix(path, windowPrefix), "/")
	placeholders := []string{"{documentId}", "{tabId}", "{rowId}"}
	normalized := []string{segments[0]}
	for i, segment := range segments[1:] {
		switch segment {
		case "documents", "version":
			normalized = append(normalized, segment)
		default:
			if i < len(placeholders) {
				normalized = append(normalized, placeholders[i])
			} else {
				normalized = append(normalized, "{id}")
			}
		}
	}
	return windowPrefix + strings.Join(normalized, "/")
}
