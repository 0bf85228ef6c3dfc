package health

import "net/http"

// ReadyChecker reports whether the service can answer queries.
type ReadyChecker interface {
	Ready() bool
}

// Healthz returns 200 "ok\n" unconditionally: the process is up.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Readyz returns a handler that reports 200 once at least one feed refresh
// has produced a snapshot, and 503 before that.
func Readyz(checker ReadyChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if !checker.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("no ephemeris loaded\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready\n"))
	}
}
