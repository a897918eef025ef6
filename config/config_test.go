package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExpandsEnvAndDefaults(t *testing.T) {
	t.Setenv("TEST_SYMBOL", "AAA")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service_name: engine-test
engine:
  symbols: ["${TEST_SYMBOL}", "BBB"]
redis:
  connection_url: redis://localhost:6379/1
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "engine-test", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"AAA", "BBB"}, cfg.Engine.Symbols)
	assert.Equal(t, 8, cfg.Engine.ShardCount)
	assert.Equal(t, 1024, cfg.Engine.QueueSize)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Redis.ConnectionURL)
	assert.Nil(t, cfg.Kafka)
}

func TestLoadFromEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
