// Package config loads the optional YAML configuration file. Every field
// has a sane default and every field can also be overridden by environment
// variables in main, so the file is a convenience, not a requirement.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// FeedConfig holds OEM feed settings.
type FeedConfig struct {
	URL                    string `yaml:"url"`
	RefreshIntervalSeconds int    `yaml:"refresh_interval_seconds"`
	CacheDir               string `yaml:"cache_dir"`
	CacheMaxFiles          int    `yaml:"cache_max_files"`
}

// GeocoderConfig holds reverse-geocoder settings.
type GeocoderConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StreamConfig holds SSE stream settings.
type StreamConfig struct {
	MaxConcurrentPerIP int  `yaml:"max_concurrent_per_ip"`
	KeepaliveSeconds   int  `yaml:"keepalive_seconds"`
	TrustProxy         bool `yaml:"trust_proxy"`
}

// AuthConfig holds Bearer-token auth settings.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// Config is the top-level structure of the config file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Feed     FeedConfig     `yaml:"feed"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Stream   StreamConfig   `yaml:"stream"`
	Auth     AuthConfig     `yaml:"auth"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Feed: FeedConfig{
			RefreshIntervalSeconds: 900,
			CacheDir:               "/tmp/isstrack/oem",
			CacheMaxFiles:          5,
		},
		Geocoder: GeocoderConfig{
			Enabled:        true,
			TimeoutSeconds: 5,
		},
		Stream: StreamConfig{
			MaxConcurrentPerIP: 10,
			KeepaliveSeconds:   30,
		},
	}
}

// Load reads a YAML config file over the defaults. Fields absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Feed.RefreshIntervalSeconds < 1 {
		return nil, fmt.Errorf("feed.refresh_interval_seconds must be positive")
	}
	if cfg.Auth.Enabled && cfg.Auth.Token == "" {
		return nil, fmt.Errorf("auth.token is required when auth is enabled")
	}

	return cfg, nil
}
