package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STATIONS_POSTGRES_DSN", "postgres://localhost/evcharge")
	t.Setenv("STATIONS_FEED_SERVICE_KEY", "key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sync.Region != "11" || cfg.Sync.PageSize != 500 || cfg.Sync.MaxPages != 3 {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if cfg.Sync.Interval != 2*time.Minute {
		t.Errorf("interval = %v, want 2m", cfg.Sync.Interval)
	}
	if !cfg.Sync.Enabled {
		t.Error("sync should be enabled by default")
	}
	if cfg.HTTPAddress() != ":8083" {
		t.Errorf("addr = %q", cfg.HTTPAddress())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STATIONS_POSTGRES_DSN", "postgres://localhost/evcharge")
	t.Setenv("STATIONS_FEED_SERVICE_KEY", "key")
	t.Setenv("STATIONS_SYNC_INTERVAL", "30s")
	t.Setenv("STATIONS_SYNC_REGION", "26")
	t.Setenv("STATIONS_SYNC_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sync.Interval != 30*time.Second || cfg.Sync.Region != "26" || cfg.Sync.Enabled {
		t.Errorf("sync = %+v", cfg.Sync)
	}
}

func TestLoadRequiresServiceKey(t *testing.T) {
	t.Setenv("STATIONS_POSTGRES_DSN", "postgres://localhost/evcharge")
	t.Setenv("STATIONS_FEED_SERVICE_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without service key")
	}
}
