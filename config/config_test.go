package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, float64(75), cfg.Scoring.Threshold)
	assert.Contains(t, cfg.Audit.Include, "**/*.py")
	assert.Contains(t, cfg.Audit.Ignore, "node_modules")
	assert.Equal(t, 500, cfg.Checks.MaxFileLines)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold out of range", func(c *Config) { c.Scoring.Threshold = 101 }},
		{"negative workers", func(c *Config) { c.Audit.Workers = -1 }},
		{"empty include", func(c *Config) { c.Audit.Include = nil }},
		{"zero file limit", func(c *Config) { c.Checks.MaxFileLines = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadAndMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `registry:
  path: /etc/checkup/registry.yaml
scoring:
  threshold: 80
checks:
  required_header_fields: [Module, Owner]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Merge(loaded)

	assert.Equal(t, "/etc/checkup/registry.yaml", cfg.Registry.Path)
	assert.Equal(t, float64(80), cfg.Scoring.Threshold)
	assert.Equal(t, []string{"Module", "Owner"}, cfg.Checks.RequiredHeaderFields)
	// Untouched fields keep their defaults.
	assert.Equal(t, 500, cfg.Checks.MaxFileLines)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Registry.Path = "/tmp/registry.yaml"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Registry.Path, loaded.Registry.Path)
	assert.Equal(t, cfg.Scoring.Threshold, loaded.Scoring.Threshold)
}
