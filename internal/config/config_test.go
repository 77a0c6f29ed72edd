package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Game.DurationSec)
	assert.Nil(t, cfg.Difficulty.FastMs)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigSections(t *testing.T) {
	path := writeConfig(t, `
[game]
duration = 30
batch-window-ms = 80
seed = 7

[difficulty]
fast-ms = 600.5
window = 3
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Game.DurationSec)
	assert.Equal(t, 30, *cfg.Game.DurationSec)
	require.NotNil(t, cfg.Game.BatchWindowMs)
	assert.Equal(t, 80, *cfg.Game.BatchWindowMs)
	assert.Nil(t, cfg.Game.TickMs)
	require.NotNil(t, cfg.Game.Seed)
	assert.Equal(t, int64(7), *cfg.Game.Seed)

	require.NotNil(t, cfg.Difficulty.FastMs)
	assert.Equal(t, 600.5, *cfg.Difficulty.FastMs)
	assert.Nil(t, cfg.Difficulty.SlowMs)
	require.NotNil(t, cfg.Difficulty.Window)
	assert.Equal(t, 3, *cfg.Difficulty.Window)
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "[game]\nduraton = 30\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duraton")
}

func TestLoadConfigDecodeError(t *testing.T) {
	path := writeConfig(t, "[game\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	assert.Equal(t, filepath.Join("/tmp/cfg", "tapgrid", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/tmp/state", "tapgrid", "debug.log"), DefaultLogPath())
}
