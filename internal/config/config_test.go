package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okraft/settle/internal/config"
)

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.IgnoreFailures)
	assert.Nil(t, cfg.Defaults.Preserve)
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "settle")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	content := `
[defaults]
ignore_failures = true
journal = false
preserve = "ugp"
preserve_raw_xattrs = false
verbose = true
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.IgnoreFailures)
	assert.True(t, *cfg.Defaults.IgnoreFailures)

	require.NotNil(t, cfg.Defaults.Journal)
	assert.False(t, *cfg.Defaults.Journal)

	require.NotNil(t, cfg.Defaults.Preserve)
	assert.Equal(t, "ugp", *cfg.Defaults.Preserve)

	require.NotNil(t, cfg.Defaults.PreserveRaw)
	assert.False(t, *cfg.Defaults.PreserveRaw)

	require.NotNil(t, cfg.Defaults.Verbose)
	assert.True(t, *cfg.Defaults.Verbose)
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "settle")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	content := `
[defaults]
preserve = "pt"
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Nil(t, cfg.Defaults.IgnoreFailures)
	assert.Nil(t, cfg.Defaults.Journal)

	require.NotNil(t, cfg.Defaults.Preserve)
	assert.Equal(t, "pt", *cfg.Defaults.Preserve)
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "settle")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte("invalid [[["), 0o644))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/settle/config.toml", config.Path())
}
