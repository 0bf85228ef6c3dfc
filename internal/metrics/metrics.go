// Package metrics registers and exposes Prometheus instrumentation for the
// tracker: HTTP traffic, feed refresh outcomes, snapshot freshness, geocoder
// health, and stream activity.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "isstrack_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_refresh_total",
			Help: "Feed refresh attempts by result.",
		},
		[]string{"result"},
	)

	ephemerisAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstrack_ephemeris_age_seconds",
			Help: "Age of the current ephemeris snapshot in seconds.",
		},
	)

	ephemerisSamples = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstrack_ephemeris_samples",
			Help: "Number of state vectors in the current snapshot.",
		},
	)

	geocoderFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "isstrack_geocoder_failures_total",
			Help: "Reverse geocoder lookups that failed (soft errors).",
		},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstrack_streams_active",
			Help: "Currently connected SSE track streams.",
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_stream_connections_total",
			Help: "SSE stream connect/disconnect events.",
		},
		[]string{"event"},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "isstrack_stream_messages_total",
			Help: "SSE track messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "isstrack_stream_bytes_total",
			Help: "Bytes written to SSE streams.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_stream_errors_total",
			Help: "SSE stream errors by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		refreshTotal,
		ephemerisAgeSeconds,
		ephemerisSamples,
		geocoderFailuresTotal,
		streamsActive,
		streamConnectionsTotal,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncRefresh records one refresh attempt with the given result label
// (success, fetch_error, parse_error).
func IncRefresh(result string) {
	refreshTotal.WithLabelValues(result).Inc()
}

// SetEphemerisAge publishes the current snapshot age.
func SetEphemerisAge(seconds float64) {
	ephemerisAgeSeconds.Set(seconds)
}

// SetEphemerisSamples publishes the current snapshot sample count.
func SetEphemerisSamples(n int) {
	ephemerisSamples.Set(float64(n))
}

// IncGeocoderFailures records one soft geocoder failure.
func IncGeocoderFailures() {
	geocoderFailuresTotal.Inc()
}

// IncStreamsActive / DecStreamsActive track the live stream gauge.
func IncStreamsActive() { streamsActive.Inc() }

// DecStreamsActive decrements the live stream gauge.
func DecStreamsActive() { streamsActive.Dec() }

// IncStreamConnections records a connect or disconnect event.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamMessages records one SSE data message.
func IncStreamMessages() { streamMessagesTotal.Inc() }

// AddStreamBytes records bytes written to a stream.
func AddStreamBytes(n int64) { streamBytesTotal.Add(float64(n)) }

// IncStreamErrors records a stream error by kind.
func IncStreamErrors(kind string) {
	streamErrorsTotal.WithLabelValues(kind).Inc()
}

// knownRoutes are exact paths that keep their own metric label.
var knownRoutes = map[string]bool{
	"/":             true,
	"/healthz":      true,
	"/readyz":       true,
	"/metrics":      true,
	"/epochs":       true,
	"/now":          true,
	"/header":       true,
	"/comment":      true,
	"/metadata":     true,
	"/stream/track": true,
}

// normalizeRoute collapses parameterized epoch paths to one label so
// arbitrary epoch strings (or bot probes) cannot explode label cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/epochs/"); ok && rest != "" {
		switch {
		case strings.HasSuffix(rest, "/speed"):
			return "/epochs/{epoch}/speed"
		case strings.HasSuffix(rest, "/location"):
			return "/epochs/{epoch}/location"
		case !strings.Contains(rest, "/"):
			return "/epochs/{epoch}"
		}
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which
// the SSE stream needs for flushing and write deadlines.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
