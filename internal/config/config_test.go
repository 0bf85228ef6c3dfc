package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Feed.RefreshIntervalSeconds != 900 {
		t.Errorf("refresh interval = %d", cfg.Feed.RefreshIntervalSeconds)
	}
	if cfg.Feed.CacheMaxFiles != 5 {
		t.Errorf("cache max files = %d", cfg.Feed.CacheMaxFiles)
	}
	if !cfg.Geocoder.Enabled {
		t.Error("geocoder should default to enabled")
	}
	if cfg.Stream.MaxConcurrentPerIP != 10 || cfg.Stream.KeepaliveSeconds != 30 {
		t.Errorf("stream defaults = %+v", cfg.Stream)
	}
	if cfg.Auth.Enabled {
		t.Error("auth should default to disabled")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
feed:
  refresh_interval_seconds: 300
  cache_dir: /var/cache/isstrack
geocoder:
  enabled: false
stream:
  max_concurrent_per_ip: 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Feed.RefreshIntervalSeconds != 300 {
		t.Errorf("refresh interval = %d", cfg.Feed.RefreshIntervalSeconds)
	}
	if cfg.Feed.CacheDir != "/var/cache/isstrack" {
		t.Errorf("cache dir = %q", cfg.Feed.CacheDir)
	}
	if cfg.Geocoder.Enabled {
		t.Error("geocoder should be disabled by the file")
	}
	if cfg.Stream.MaxConcurrentPerIP != 3 {
		t.Errorf("stream max = %d", cfg.Stream.MaxConcurrentPerIP)
	}

	// Fields absent from the file keep their defaults.
	if cfg.Feed.CacheMaxFiles != 5 {
		t.Errorf("cache max files = %d, want default", cfg.Feed.CacheMaxFiles)
	}
	if cfg.Stream.KeepaliveSeconds != 30 {
		t.Errorf("keepalive = %d, want default", cfg.Stream.KeepaliveSeconds)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "malformed yaml",
			content: "server: [not a map",
			wantMsg: "parsing config file",
		},
		{
			name:    "zero refresh interval",
			content: "feed:\n  refresh_interval_seconds: 0\n",
			wantMsg: "refresh_interval_seconds",
		},
		{
			name:    "auth enabled without token",
			content: "auth:\n  enabled: true\n",
			wantMsg: "auth.token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
