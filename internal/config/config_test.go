package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database != DefaultDBFileName {
		t.Errorf("expected default database, got %q", cfg.Database)
	}
	if cfg.Backup.Frequency != DefaultFrequency {
		t.Errorf("expected default frequency, got %q", cfg.Backup.Frequency)
	}
	if cfg.Backup.MaxBackups != DefaultMaxBackups {
		t.Errorf("expected default max backups, got %d", cfg.Backup.MaxBackups)
	}
	if cfg.VaultDir == "" {
		t.Error("vault dir not defaulted")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
vault_dir: /tmp/customvault
database: custom.db
backup:
  frequency: daily
  max_backups: 9
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.VaultDir != "/tmp/customvault" {
		t.Errorf("vault_dir not applied: %q", cfg.VaultDir)
	}
	if cfg.Database != "custom.db" {
		t.Errorf("database not applied: %q", cfg.Database)
	}
	if cfg.Backup.Frequency != "daily" || cfg.Backup.MaxBackups != 9 {
		t.Errorf("backup settings not applied: %+v", cfg.Backup)
	}
	if got := cfg.DBPath(); got != filepath.Join("/tmp/customvault", "custom.db") {
		t.Errorf("unexpected DBPath: %q", got)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("vault_dir: /tmp/x\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database != DefaultDBFileName {
		t.Errorf("database not defaulted: %q", cfg.Database)
	}
	if cfg.Backup.Frequency != DefaultFrequency {
		t.Errorf("frequency not defaulted: %q", cfg.Backup.Frequency)
	}
}

func TestLoadRejectsBadFrequency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backup:\n  frequency: fortnightly\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, ErrBadFrequency) {
		t.Errorf("expected ErrBadFrequency, got %v", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
