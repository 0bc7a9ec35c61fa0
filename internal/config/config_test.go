package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

sink:
  write_keys:
    - "wk_live"
    - "wk_staging"
  retention_minutes: 15

log:
  level: "debug"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"wk_live", "wk_staging"}, cfg.Sink.WriteKeys)
	assert.Equal(t, 15, cfg.Sink.RetentionMinutes)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Defaults fill what the file omits
	assert.Equal(t, 5, cfg.Server.ReadTimeoutSeconds)
	assert.Equal(t, int64(1<<20), cfg.Sink.MaxBodyBytes)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("SINK_WRITE_KEYS", "wk_a, wk_b,")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, []string{"wk_a", "wk_b"}, cfg.Sink.WriteKeys)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 60, cfg.Sink.RetentionMinutes)
}
