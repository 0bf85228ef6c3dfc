package oem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/metrics"
)

// Refresher periodically replaces the Store's snapshot with a fresh feed
// download. A failed refresh leaves the previous snapshot in place, so
// readers see stale-but-consistent data rather than nothing.
type Refresher struct {
	fetcher  *Fetcher
	store    *Store
	cache    *Cache // optional; nil disables the disk cache
	interval time.Duration
	logger   *slog.Logger
}

// NewRefresher creates a Refresher. interval must be positive.
func NewRefresher(fetcher *Fetcher, store *Store, cache *Cache, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		fetcher:  fetcher,
		store:    store,
		cache:    cache,
		interval: interval,
		logger:   logger,
	}
}

// Run performs an immediate refresh, then refreshes on the configured
// interval until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	if err := r.RefreshOnce(ctx); err != nil {
		r.logger.Warn("initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			if err := r.RefreshOnce(ctx); err != nil {
				r.logger.Warn("refresh failed, keeping previous snapshot", "error", err)
			}
		}
	}
}

// RefreshOnce fetches and parses the feed, then atomically swaps the new
// Ephemeris into the store. The previous snapshot survives any failure.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	r.store.Lock()
	defer r.store.Unlock()

	start := time.Now()

	data, err := r.fetcher.Fetch(ctx)
	if err != nil {
		metrics.IncRefresh("fetch_error")
		return fmt.Errorf("fetch: %w", err)
	}

	eph, err := Parse(data)
	if err != nil {
		metrics.IncRefresh("parse_error")
		return fmt.Errorf("parse: %w", err)
	}

	eph.Source = r.fetcher.SourceURL()
	eph.FetchedAt = time.Now()

	r.store.Set(eph)
	metrics.IncRefresh("success")
	metrics.SetEphemerisSamples(len(eph.Samples))

	if r.cache != nil {
		if err := r.cache.Write(data, eph.FetchedAt); err != nil {
			// Cache failures are not fatal: the in-memory snapshot is live.
			r.logger.Warn("failed to write feed cache", "error", err)
		}
	}

	r.logger.Info("ephemeris refreshed",
		"samples", len(eph.Samples),
		"epoch_min", eph.EpochRange.Min.Format(time.RFC3339),
		"epoch_max", eph.EpochRange.Max.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// LoadFromCache seeds the store from the newest disk-cached feed file.
// Used at startup so queries can be answered before the first network
// refresh. Returns the cache timestamp of the loaded file.
func LoadFromCache(cache *Cache, store *Store, logger *slog.Logger) (time.Time, error) {
	data, ts, err := cache.LoadLatest()
	if err != nil {
		return time.Time{}, err
	}

	eph, err := Parse(data)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cached feed: %w", err)
	}

	eph.Source = "cache"
	eph.FetchedAt = ts
	store.Set(eph)
	metrics.SetEphemerisSamples(len(eph.Samples))

	logger.Info("loaded ephemeris from cache",
		"samples", len(eph.Samples),
		"cached_at", ts.Format(time.RFC3339),
	)

	return ts, nil
}
