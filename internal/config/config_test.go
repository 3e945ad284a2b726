package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("PANTRY_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.SyncInterval.Std() != 30*time.Second {
		t.Errorf("SyncInterval = %v, want 30s", cfg.SyncInterval.Std())
	}
	if cfg.BackendBaseURL != "http://localhost:3000" {
		t.Errorf("BackendBaseURL = %q", cfg.BackendBaseURL)
	}
}

func TestLoadReadsFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PANTRY_HOME", dir)

	content := `{"backend_base_url": "https://orders.example.com", "sync_interval": "90s"}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("PANTRY_SYNC_INTERVAL", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BackendBaseURL != "https://orders.example.com" {
		t.Errorf("BackendBaseURL = %q, want file value", cfg.BackendBaseURL)
	}
	if cfg.SyncInterval.Std() != 2*time.Minute {
		t.Errorf("SyncInterval = %v, want env override 2m", cfg.SyncInterval.Std())
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PANTRY_HOME", dir)

	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(); err == nil {
		t.Error("Load() accepted malformed config")
	}
}

func TestEnvDurationAcceptsBareSeconds(t *testing.T) {
	t.Setenv("PANTRY_HOME", t.TempDir())
	t.Setenv("PANTRY_PROBE_INTERVAL", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ProbeInterval.Std() != 45*time.Second {
		t.Errorf("ProbeInterval = %v, want 45s", cfg.ProbeInterval.Std())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("PANTRY_HOME", t.TempDir())

	cfg := Default()
	cfg.AdminAddr = ":9999"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.AdminAddr != ":9999" {
		t.Errorf("AdminAddr = %q, want :9999", loaded.AdminAddr)
	}
}
