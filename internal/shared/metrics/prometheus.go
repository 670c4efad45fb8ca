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
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	patientFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_record_fetches_total",
			Help: "Total number of patient record reads",
		},
		[]string{"result"},
	)

	historyFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_history_fetches_total",
			Help: "Total number of diagnosis history list reads",
		},
		[]string{"result"},
	)

	analysesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_recorded_total",
			Help: "Total number of analysis reports recorded",
		},
		[]string{"source"},
	)

	analyzerImports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_session_imports_total",
			Help: "Total number of analyzer sessions imported",
		},
		[]string{"station", "result"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_cache_lookups_total",
			Help: "Total number of patient cache lookups",
		},
		[]string{"result"},
	)

	auditEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit entries created",
		},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordPatientFetch records a patient record read
func RecordPatientFetch(result string) {
	patientFetches.WithLabelValues(result).Inc()
}

// RecordHistoryFetch records a diagnosis history list read
func RecordHistoryFetch(result string) {
	historyFetches.WithLabelValues(result).Inc()
}

// RecordAnalysisRecorded records a stored analysis report
func RecordAnalysisRecorded(source string) {
	analysesRecorded.WithLabelValues(source).Inc()
}

// RecordAnalyzerImport records an analyzer session import attempt
func RecordAnalyzerImport(station, result string) {
	analyzerImports.WithLabelValues(station, result).Inc()
}

// RecordCacheLookup records a patient cache hit or miss
func RecordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// RecordAuditEntry records an audit entry creation
func RecordAuditEntry() {
	auditEntriesTotal.Inc()
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
