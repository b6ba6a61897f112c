// Package config loads sentinelvault configuration. The database location
// is explicit configuration handed to the store at construction, never
// process-wide mutable state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultDirName    = ".sentinelvault"
	DefaultDBFileName = "vault.db"
	DefaultFrequency  = "weekly"
	DefaultMaxBackups = 5
)

// ErrBadFrequency indicates an unrecognized backup frequency value.
var ErrBadFrequency = errors.New("config: invalid backup frequency")

// validFrequencies are the accepted backup_frequency values.
var validFrequencies = map[string]bool{
	"hourly":  true,
	"daily":   true,
	"weekly":  true,
	"monthly": true,
	"never":   true,
}

// Backup holds backup preferences.
type Backup struct {
	Frequency  string `yaml:"frequency"`
	MaxBackups int    `yaml:"max_backups"`
}

// Config is the full configuration file shape.
type Config struct {
	VaultDir string `yaml:"vault_dir"`
	Database string `yaml:"database"`
	Backup   Backup `yaml:"backup"`
}

// Default returns the configuration used when no file exists, rooted in
// the user's home directory.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("config: failed to get user home directory: %w", err)
	}
	return &Config{
		VaultDir: filepath.Join(home, DefaultDirName),
		Database: DefaultDBFileName,
		Backup: Backup{
			Frequency:  DefaultFrequency,
			MaxBackups: DefaultMaxBackups,
		},
	}, nil
}

// Load reads a YAML configuration file, filling missing fields from
// defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if cfg.Database == "" {
		cfg.Database = DefaultDBFileName
	}
	if cfg.Backup.Frequency == "" {
		cfg.Backup.Frequency = DefaultFrequency
	}
	if cfg.Backup.MaxBackups == 0 {
		cfg.Backup.MaxBackups = DefaultMaxBackups
	}
	if !validFrequencies[cfg.Backup.Frequency] {
		return nil, fmt.Errorf("%w: %q", ErrBadFrequency, cfg.Backup.Frequency)
	}
	return cfg, nil
}

// DBPath returns the full path of the vault database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.VaultDir, c.Database)
}

// BackupDir returns the directory backups are written to.
func (c *Config) BackupDir() string {
	return filepath.Join(c.VaultDir, "backups")
}
