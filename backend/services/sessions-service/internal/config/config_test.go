package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SESSIONS_POSTGRES_DSN", "postgres://localhost/evcharge")
	t.Setenv("SESSIONS_JWT_SECRET", "secret")
	t.Setenv("SESSIONS_OCR_URL", "http://ocr.local/general")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Geofence.ToleranceMeters != 30 {
		t.Errorf("tolerance = %v, want 30", cfg.Geofence.ToleranceMeters)
	}
	if cfg.Carbon.DefaultEfficiency != 5 {
		t.Errorf("efficiency = %v, want 5", cfg.Carbon.DefaultEfficiency)
	}
	if cfg.HTTPAddress() != ":8082" {
		t.Errorf("addr = %q", cfg.HTTPAddress())
	}
	if cfg.OCRTimeout() != 20*time.Second {
		t.Errorf("ocr timeout = %v", cfg.OCRTimeout())
	}
	if cfg.RedisEnabled() {
		t.Error("redis should be disabled without an address")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSIONS_GEOFENCE_TOLERANCE_M", "50")
	t.Setenv("SESSIONS_HTTP_PORT", ":9000")
	t.Setenv("SESSIONS_REDIS_ADDR", "redis:6379")
	t.Setenv("SESSIONS_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Geofence.ToleranceMeters != 50 {
		t.Errorf("tolerance = %v, want 50", cfg.Geofence.ToleranceMeters)
	}
	if cfg.HTTPAddress() != ":9000" {
		t.Errorf("addr = %q", cfg.HTTPAddress())
	}
	if !cfg.RedisEnabled() {
		t.Error("redis should be enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("SESSIONS_POSTGRES_DSN", "postgres://localhost/evcharge")
	t.Setenv("SESSIONS_JWT_SECRET", "")
	t.Setenv("SESSIONS_OCR_URL", "http://ocr.local")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without jwt secret")
	}
}

func TestLoadRejectsNonPositiveTolerance(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSIONS_GEOFENCE_TOLERANCE_M", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero tolerance")
	}
}
