package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/scadactl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "scadactl.toml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
catalog_db = "/tmp/catalog.db"

[scada]
base_url = "http://scada.local:8080/Scada-LTS"
username = "operator"
password = "secret"
timeout_seconds = 3

[collector]
sample_rate_hz = 2.0
buffer_seconds = 120

[server]
listen = ":9000"
`)
	t.Setenv("SCADACTL_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://scada.local:8080/Scada-LTS", cfg.Scada.BaseURL)
	assert.Equal(t, "operator", cfg.Scada.Username)
	assert.Equal(t, "secret", cfg.Scada.Password)
	assert.Equal(t, 3*time.Second, cfg.Scada.Timeout())
	assert.InDelta(t, 2.0, cfg.Collector.SampleRateHz, 1e-9)
	assert.Equal(t, 120, cfg.Collector.BufferSeconds)
	assert.Equal(t, 240, cfg.Collector.MaxBufferSize())
	assert.Equal(t, 500*time.Millisecond, cfg.Collector.SampleInterval())
	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, "/tmp/catalog.db", cfg.CatalogDB)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SCADACTL_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, "http://localhost:8080/Scada-LTS", cfg.Scada.BaseURL)
	assert.InDelta(t, 1.0, cfg.Collector.SampleRateHz, 1e-9)
	assert.Equal(t, 300, cfg.Collector.BufferSeconds)
	assert.Equal(t, 300, cfg.Collector.MaxBufferSize())
	assert.Equal(t, time.Second, cfg.Collector.SampleInterval())
	assert.Equal(t, ":8000", cfg.Server.Listen)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.LLM.APIKey)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	path := writeConfig(t, "This is not a valid TOML file\n")
	t.Setenv("SCADACTL_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestValidateEnumeratesAllViolations(t *testing.T) {
	path := writeConfig(t, `
log_level = "noisy"

[collector]
sample_rate_hz = 0.0
buffer_seconds = -10
`)
	t.Setenv("SCADACTL_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample_rate_hz")
	assert.Contains(t, err.Error(), "buffer_seconds")
	assert.Contains(t, err.Error(), "log_level")
}

func TestLogLevelFlag(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	t.Setenv("SCADACTL_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	os.Args = []string{"cmd", "--log-level", "debug"}

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SCADACTL_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("SCADACTL_SCADA_BASE_URL", "http://env.local/Scada-LTS")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://env.local/Scada-LTS", cfg.Scada.BaseURL)
}
