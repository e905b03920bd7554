package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigFromHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MEDTRACK_HOME", home)
	t.Setenv("MEDTRACK_BACKEND", "")
	t.Setenv("MEDTRACK_STORAGE_KEY", "")
	t.Setenv("MEDTRACK_NO_COLOR", "")
	t.Setenv("NO_COLOR", "")

	cfg := DefaultConfig()

	assert.Equal(t, home, cfg.HomeDir)
	assert.Equal(t, filepath.Join(home, "data"), cfg.DataDir)
	assert.Equal(t, backendFile, cfg.Backend)
	assert.Equal(t, defaultStorageKey, cfg.StorageKey)
	assert.False(t, cfg.NoColor)
}

func TestDefaultConfigFileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MEDTRACK_HOME", home)
	t.Setenv("MEDTRACK_BACKEND", "")
	t.Setenv("MEDTRACK_STORAGE_KEY", "")
	t.Setenv("MEDTRACK_NO_COLOR", "")
	t.Setenv("NO_COLOR", "")

	configYAML := `data_dir: state
backend: sqlite
storage_key: myTracker
`
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(configYAML), 0644))

	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join(home, "state"), cfg.DataDir)
	assert.Equal(t, backendSQLite, cfg.Backend)
	assert.Equal(t, "myTracker", cfg.StorageKey)

	// Environment wins over the file
	t.Setenv("MEDTRACK_BACKEND", "FILE")
	t.Setenv("MEDTRACK_NO_COLOR", "1")
	cfg = DefaultConfig()
	assert.Equal(t, backendFile, cfg.Backend)
	assert.True(t, cfg.NoColor)
}

func TestConfigFileInvalidIsIgnored(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "backend: [unterminated"},
		{"unknown backend", "backend: redis"},
		{"blank storage key", "storage_key: '   '"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			path := filepath.Join(home, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg := baseConfig(home)
			assert.Error(t, cfg.mergeFile(path))
			assert.Equal(t, baseConfig(home), cfg, "config must be left untouched")
		})
	}
}

func TestConfigMissingFile(t *testing.T) {
	home := t.TempDir()
	cfg := baseConfig(home)
	assert.NoError(t, cfg.mergeFile(filepath.Join(home, "config.yaml")))
}

func TestValidate(t *testing.T) {
	cfg := TestConfig(t.TempDir())
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.NoColor)

	cfg.Backend = "memory"
	assert.Error(t, cfg.Validate())

	cfg.Backend = backendSQLite
	cfg.StorageKey = ""
	assert.Error(t, cfg.Validate())
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/var/lib/medtrack", expandHome("/var/lib/medtrack", "/home/u/.medtrack"))
	assert.Equal(t, filepath.Join("/home/u/.medtrack", "data"), expandHome("data", "/home/u/.medtrack"))

	userHome, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userHome, "tracker"), expandHome("~/tracker", "/x"))
}
