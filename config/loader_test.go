package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderProjectConfigDiscovery(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ProjectConfigDir), 0755))
	doc := "scoring:\n  threshold: 90\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(root, ProjectConfigDir, ProjectConfigFile), []byte(doc), 0644))

	// Discovery walks up from a nested working directory.
	nested := filepath.Join(root, "pkg", "deep")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	cfg, err := NewLoader(nil).Load()
	require.NoError(t, err)
	assert.Equal(t, float64(90), cfg.Scoring.Threshold)
}

func TestLoaderEnvOverridesProjectConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ProjectConfigDir), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, ProjectConfigDir, ProjectConfigFile),
		[]byte("scoring:\n  threshold: 90\n"), 0644))

	envPath := filepath.Join(root, "override.yaml")
	require.NoError(t, os.WriteFile(envPath, []byte("scoring:\n  threshold: 60\n"), 0644))

	t.Chdir(root)
	t.Setenv(ConfigPathEnv, envPath)

	cfg, err := NewLoader(nil).Load()
	require.NoError(t, err)
	assert.Equal(t, float64(60), cfg.Scoring.Threshold)
}

func TestLoaderEnvPathMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	_, err := NewLoader(nil).Load()
	assert.Error(t, err)
}
