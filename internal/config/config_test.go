package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.os.uk/features/ngd/ofa/v1", cfg.OS.BaseURL)
	assert.Equal(t, 100, cfg.OS.PageSize)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 50.0, cfg.Resolver.BufferMetres)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
os:
  key: test-key
  rate_limit: 5
store:
  driver: postgres
  database_url: postgres://localhost/streets
resolver:
  buffer_metres: 25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.OS.Key)
	assert.Equal(t, 5.0, cfg.OS.RateLimit)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 25.0, cfg.Resolver.BufferMetres)
	// Untouched defaults survive partial files.
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "not-a-level", Format: "json"}))
}
