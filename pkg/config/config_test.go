package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	// Run from a directory without config.yaml so env defaults apply.
	chdir(t, t.TempDir())

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, 6, cfg.RateLimit.MaxPerWindow)
	assert.Equal(t, 60, cfg.RateLimit.WindowSeconds)
	assert.Equal(t, 10, cfg.RateLimit.MinSpacingSeconds)
	assert.Equal(t, 5, cfg.RateLimit.BurstWindowSeconds)
	assert.Equal(t, "storycanvas.db", cfg.Cache.Path)
	assert.False(t, cfg.LLM.IsConfigured())
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REMOTE_BASE_URL", "https://api.example.com/v2")
	t.Setenv("RATE_MAX_PER_WINDOW", "12")

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v2", cfg.Remote.BaseURL)
	assert.Equal(t, 12, cfg.RateLimit.MaxPerWindow)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("remote:\n  base_url: https://yaml.example.com\ncache:\n  path: custom.db\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	chdir(t, dir)

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "https://yaml.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, "custom.db", cfg.Cache.Path)
	// Fields absent from YAML keep their env defaults.
	assert.Equal(t, 6, cfg.RateLimit.MaxPerWindow)
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, WriteDefault(path))

	chdir(t, dir)
	cfg, err := Load("test")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.RateLimit.MaxPerWindow)
}
