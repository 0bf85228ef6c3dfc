// Package stream implements a Server-Sent Events feed of the tracker's
// current derived state. Clients connect via GET /stream/track and receive
// a track point (nearest sample to now, with speed and ground location)
// every step seconds.
//
// SSE message format:
//
//	data: {"type":"track","epoch":"...","lat":...,"lon":...,"alt_km":...,"speed_km_s":...}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","dataset_fetched_at":"...","dataset_age_seconds":...,"samples":...}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent
// idle timeouts. Place names are deliberately absent: a geocoder call per
// tick would hammer the upstream, and stream consumers want numbers.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/ephem"
	"github.com/sheikhmt/taha-iss-tracker/internal/httputil"
	"github.com/sheikhmt/taha-iss-tracker/internal/metrics"
	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/transform"
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Trust X-Forwarded-For for client IPs.
}

// Handler manages SSE track-stream connections.
type Handler struct {
	store   *oem.Store
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler creates a new streaming handler reading from store.
func NewHandler(store *oem.Store, config Config, logger *slog.Logger) *Handler {
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 10
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		store:   store,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP),
		logger:  logger,
		now:     time.Now,
	}
}

// HandleTrack serves the SSE track stream.
// GET /stream/track?step=5
func (h *Handler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	step := 5
	if v := r.URL.Query().Get("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid step parameter, must be 1-60"})
			return
		}
		step = n
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"step", step,
	)

	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)

	// ResponseController handles flushing and write deadlines through the
	// middleware wrappers. Clear the server's default WriteTimeout for this
	// long-lived connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}
	if err := rc.Flush(); err != nil {
		metrics.IncStreamErrors("flush_error")
		h.logger.Warn("streaming not supported", "remote_ip", ip, "error", err)
		return
	}

	c := &client{
		w:      w,
		rc:     rc,
		ip:     ip,
		logger: h.logger,
	}

	// Jittered retry interval (3-7s) prevents thundering-herd reconnection
	// storms when the server restarts.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	rc.Flush()

	// Metadata first on every connection.
	if eph := h.store.Get(); eph != nil {
		meta := metadataMessage{
			Type:             "metadata",
			DatasetFetchedAt: eph.FetchedAt.UTC().Format(time.RFC3339),
			DatasetAge:       int(time.Since(eph.FetchedAt).Seconds()),
			Samples:          len(eph.Samples),
		}
		if err := c.sendJSON(meta); err != nil {
			metrics.IncStreamErrors("send_error")
			h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
			return
		}
	}

	ticker := time.NewTicker(time.Duration(step) * time.Second)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			msg, ok := h.trackPoint()
			if !ok {
				// No snapshot yet; keep the connection open and try again
				// next tick.
				metrics.IncStreamErrors("not_ready")
				continue
			}
			if err := c.sendJSON(msg); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// trackPoint derives the message for the sample nearest to now. Returns
// false when no snapshot is loaded or the geometry is degenerate.
func (h *Handler) trackPoint() (trackMessage, bool) {
	eph := h.store.Get()
	if eph == nil {
		return trackMessage{}, false
	}

	sv, err := ephem.NewIndex(eph).FindNearest(h.now())
	if err != nil {
		return trackMessage{}, false
	}

	pt, err := transform.ToGeodetic(sv.Position, sv.Time)
	if err != nil {
		return trackMessage{}, false
	}

	return trackMessage{
		Type:     "track",
		Epoch:    sv.Epoch,
		Time:     h.now().UTC().Format(time.RFC3339),
		Lat:      pt.LatDeg,
		Lon:      pt.LonDeg,
		AltKm:    pt.AltKm,
		SpeedKmS: transform.Speed(sv.Velocity),
	}, true
}

// SSE message payload types.

type metadataMessage struct {
	Type             string `json:"type"`
	DatasetFetchedAt string `json:"dataset_fetched_at"`
	DatasetAge       int    `json:"dataset_age_seconds"`
	Samples          int    `json:"samples"`
}

type trackMessage struct {
	Type     string  `json:"type"`
	Epoch    string  `json:"epoch"`
	Time     string  `json:"t"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	AltKm    float64 `json:"alt_km"`
	SpeedKmS float64 `json:"speed_km_s"`
}
