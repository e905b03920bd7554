package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultStorageKey = "trackerData"

	backendFile   = "file"
	backendSQLite = "sqlite"
)

// Config holds configuration for the application
type Config struct {
	HomeDir    string `yaml:"-"`
	DataDir    string `yaml:"data_dir"`
	Backend    string `yaml:"backend"`
	StorageKey string `yaml:"storage_key"`
	NoColor    bool   `yaml:"no_color"`
}

// DefaultConfig returns the configuration from ~/.medtrack, the optional
// config.yaml inside it and MEDTRACK_* environment variables, in that order.
func DefaultConfig() *Config {
	// A missing .env is the normal case
	_ = godotenv.Load()

	home := os.Getenv("MEDTRACK_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			userHome = "."
		}
		home = filepath.Join(userHome, ".medtrack")
	}

	cfg := baseConfig(home)

	path := filepath.Join(home, "config.yaml")
	if err := cfg.mergeFile(path); err != nil {
		slog.Warn("Ignoring config file", "path", path, "error", err)
	}

	cfg.applyEnv()
	return cfg
}

// TestConfig returns a configuration for testing
func TestConfig(testDir string) *Config {
	cfg := baseConfig(testDir)
	cfg.NoColor = true
	return cfg
}

func baseConfig(home string) *Config {
	return &Config{
		HomeDir:    home,
		DataDir:    filepath.Join(home, "data"),
		Backend:    backendFile,
		StorageKey: defaultStorageKey,
	}
}

// mergeFile overlays non-empty values from a YAML config file. A missing file is not an error.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	merged := *c
	if fileCfg.DataDir != "" {
		merged.DataDir = expandHome(fileCfg.DataDir, c.HomeDir)
	}
	if fileCfg.Backend != "" {
		merged.Backend = strings.ToLower(strings.TrimSpace(fileCfg.Backend))
	}
	if fileCfg.StorageKey != "" {
		merged.StorageKey = fileCfg.StorageKey
	}
	if fileCfg.NoColor {
		merged.NoColor = true
	}
	if err := merged.Validate(); err != nil {
		return err
	}

	*c = merged
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MEDTRACK_BACKEND"); v != "" {
		c.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("MEDTRACK_STORAGE_KEY"); v != "" {
		c.StorageKey = v
	}
	if os.Getenv("MEDTRACK_NO_COLOR") != "" || os.Getenv("NO_COLOR") != "" {
		c.NoColor = true
	}
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	switch c.Backend {
	case backendFile, backendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (use: %s, %s)", c.Backend, backendFile, backendSQLite)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("storage key must not be empty")
	}
	return nil
}

// expandHome resolves a leading ~ and makes relative paths relative to the medtrack home
func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		if userHome, err := os.UserHomeDir(); err == nil {
			return filepath.Join(userHome, path[2:])
		}
	}
	if !filepath.IsAbs(path) {
		return filepath.Join(home, path)
	}
	return path
}
