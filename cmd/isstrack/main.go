package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/api"
	"github.com/sheikhmt/taha-iss-tracker/internal/auth"
	"github.com/sheikhmt/taha-iss-tracker/internal/config"
	"github.com/sheikhmt/taha-iss-tracker/internal/geocode"
	"github.com/sheikhmt/taha-iss-tracker/internal/metrics"
	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/query"
	"github.com/sheikhmt/taha-iss-tracker/internal/stream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store := oem.NewStore()
	feedCache := oem.NewCache(cfg.Feed.CacheDir, cfg.Feed.CacheMaxFiles)

	// Seed from the disk cache so queries work before the first fetch.
	if ts, err := oem.LoadFromCache(feedCache, store, logger); err != nil {
		logger.Info("no feed cache found, starting without data", "error", err)
	} else {
		logger.Info("serving cached ephemeris until first refresh", "cached_at", ts.Format(time.RFC3339))
	}

	fetcher := oem.NewFetcher(cfg.Feed.URL, logger)
	refresher := oem.NewRefresher(
		fetcher,
		store,
		feedCache,
		time.Duration(cfg.Feed.RefreshIntervalSeconds)*time.Second,
		logger,
	)

	var geocoder geocode.Client = geocode.Disabled{}
	if cfg.Geocoder.Enabled {
		geocoder = geocode.NewNominatim(
			cfg.Geocoder.BaseURL,
			time.Duration(cfg.Geocoder.TimeoutSeconds)*time.Second,
			logger,
		)
	}

	svc := query.NewService(store, geocoder, logger)

	streamHandler := stream.NewHandler(store, stream.Config{
		MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
		KeepaliveInterval:  time.Duration(cfg.Stream.KeepaliveSeconds) * time.Second,
		TrustProxy:         cfg.Stream.TrustProxy,
	}, logger)

	authCfg := auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token}
	srv := api.NewServer(cfg.Server.Addr, logger, authCfg, svc, streamHandler)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go refresher.Run(ctx)

	// Background goroutine to update the snapshot age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetEphemerisAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", cfg.Server.Addr,
			"auth_enabled", authCfg.Enabled,
			"feed_url", fetcher.SourceURL(),
			"refresh_interval_seconds", cfg.Feed.RefreshIntervalSeconds,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// loadConfig merges the optional YAML file (ISSTRACK_CONFIG) with
// environment variable overrides. Invalid optional values warn and keep the
// previous value; invalid required combinations are fatal.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	var cfg *config.Config

	if path := os.Getenv("ISSTRACK_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded config file", "path", path)
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if v := os.Getenv("ISSTRACK_HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if v := os.Getenv("ISSTRACK_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}

	if v := os.Getenv("ISSTRACK_REFRESH_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSTRACK_REFRESH_INTERVAL value, using default", "value", v, "default", cfg.Feed.RefreshIntervalSeconds)
		} else {
			cfg.Feed.RefreshIntervalSeconds = n
		}
	}

	if v := os.Getenv("ISSTRACK_CACHE_DIR"); v != "" {
		cfg.Feed.CacheDir = v
	}

	if v := os.Getenv("ISSTRACK_CACHE_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSTRACK_CACHE_MAX_FILES value, using default", "value", v, "default", cfg.Feed.CacheMaxFiles)
		} else {
			cfg.Feed.CacheMaxFiles = n
		}
	}

	if v := os.Getenv("ISSTRACK_GEOCODER_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ISSTRACK_GEOCODER_ENABLED value, keeping current setting", "value", v)
		} else {
			cfg.Geocoder.Enabled = enabled
		}
	}

	if v := os.Getenv("ISSTRACK_GEOCODER_URL"); v != "" {
		cfg.Geocoder.BaseURL = v
	}

	if v := os.Getenv("ISSTRACK_GEOCODER_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSTRACK_GEOCODER_TIMEOUT value, using default", "value", v, "default", cfg.Geocoder.TimeoutSeconds)
		} else {
			cfg.Geocoder.TimeoutSeconds = n
		}
	}

	if v := os.Getenv("ISSTRACK_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSTRACK_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", cfg.Stream.MaxConcurrentPerIP)
		} else {
			cfg.Stream.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("ISSTRACK_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSTRACK_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", cfg.Stream.KeepaliveSeconds)
		} else {
			cfg.Stream.KeepaliveSeconds = n
		}
	}

	if v := os.Getenv("ISSTRACK_STREAM_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ISSTRACK_STREAM_TRUST_PROXY value, keeping current setting", "value", v)
		} else {
			cfg.Stream.TrustProxy = trust
		}
	}

	if v := os.Getenv("ISSTRACK_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("ISSTRACK_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Auth.Enabled = enabled
	}

	if v := os.Getenv("ISSTRACK_AUTH_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.Token == "" {
			return nil, errors.New("ISSTRACK_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}
