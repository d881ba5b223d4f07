package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Paths.Database != "./data/forum.db" {
		t.Fatalf("unexpected default database path %q", cfg.Paths.Database)
	}
	if !cfg.Store.ForeignKeys {
		t.Fatalf("foreign keys should default on")
	}
	if cfg.BusyTimeout() != 5*time.Second {
		t.Fatalf("unexpected default busy timeout %v", cfg.BusyTimeout())
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `paths:
  database: /tmp/other.db
store:
  foreign_keys: false
  busy_timeout_ms: 250
`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paths.Database != "/tmp/other.db" {
		t.Fatalf("database override lost: %q", cfg.Paths.Database)
	}
	if cfg.Store.ForeignKeys {
		t.Fatalf("foreign keys override lost")
	}
	if cfg.BusyTimeout() != 250*time.Millisecond {
		t.Fatalf("busy timeout override lost: %v", cfg.BusyTimeout())
	}
	// Untouched keys keep their defaults.
	if cfg.Paths.Scripts != "./scripts" {
		t.Fatalf("default scripts path lost: %q", cfg.Paths.Scripts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("paths: ["), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}
