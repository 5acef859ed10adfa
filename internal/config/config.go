package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDatabasePath = "db.json"
	DefaultLockfilePath = "lockfile"
	DefaultReportWindow = 24 * time.Hour
)

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Lockfile settings
	Lockfile LockfileConfig `yaml:"lockfile"`

	// Report settings
	Report ReportConfig `yaml:"report"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to the interval log (JSON)
}

type LockfileConfig struct {
	Path string `yaml:"path"` // Path to the lockfile
}

type ReportConfig struct {
	Window time.Duration `yaml:"window"` // How far back "report" looks, e.g. "24h"
}

// DefaultConfigPath returns ~/.config/track/config.yaml
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		return filepath.Join(".", ".config", "track", "config.yaml")
	}
	return filepath.Join(homeDir, ".config", "track", "config.yaml")
}

// DefaultConfig returns defaults relative to the working directory
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: DefaultDatabasePath,
		},
		Lockfile: LockfileConfig{
			Path: DefaultLockfilePath,
		},
		Report: ReportConfig{
			Window: DefaultReportWindow,
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist
func Load(path string) (*Config, error) {
	// If file doesn't exist, return defaults
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.Database.Path = NormalizeDBPath(cfg.Database.Path)
	if cfg.Lockfile.Path == "" {
		cfg.Lockfile.Path = DefaultLockfilePath
	}
	if cfg.Report.Window <= 0 {
		cfg.Report.Window = DefaultReportWindow
	}

	return cfg, nil
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// NormalizeDBPath appends ".json" to database paths that lack it, the way
// earlier versions of track always did. An empty path means the default.
func NormalizeDBPath(path string) string {
	if path == "" {
		return DefaultDatabasePath
	}
	if !strings.HasSuffix(path, ".json") {
		return path + ".json"
	}
	return path
}
