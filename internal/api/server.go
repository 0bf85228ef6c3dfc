// Package api exposes the tracker's query service over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/auth"
	"github.com/sheikhmt/taha-iss-tracker/internal/health"
	"github.com/sheikhmt/taha-iss-tracker/internal/metrics"
	"github.com/sheikhmt/taha-iss-tracker/internal/query"
	"github.com/sheikhmt/taha-iss-tracker/internal/stream"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server over the query service.
// streamHandler may be nil to disable the SSE track stream.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, svc *query.Service, streamHandler *stream.Handler) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(svc))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /epochs", epochsHandler(logger, svc))
	mux.HandleFunc("GET /epochs/{epoch}", epochHandler(logger, svc))
	mux.HandleFunc("GET /epochs/{epoch}/speed", speedHandler(logger, svc))
	mux.HandleFunc("GET /epochs/{epoch}/location", locationHandler(logger, svc))
	mux.HandleFunc("GET /now", nowHandler(logger, svc))
	mux.HandleFunc("GET /header", headerHandler(logger, svc))
	mux.HandleFunc("GET /comment", commentHandler(logger, svc))
	mux.HandleFunc("GET /metadata", metadataHandler(logger, svc))

	if streamHandler != nil {
		mux.HandleFunc("GET /stream/track", streamHandler.HandleTrack)
	}

	// Middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
