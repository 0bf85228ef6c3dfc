// Package httputil holds small HTTP request helpers shared by the API and
// stream layers.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the originating client address for a request. With
// trustProxy set, the X-Forwarded-For chain (leftmost entry) and X-Real-IP
// are consulted first; otherwise only RemoteAddr counts. Never set
// trustProxy unless every hop in front of the server strips or overwrites
// these headers, since clients can forge them freely.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedFor(r); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func forwardedFor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Real-IP"))
}
