package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("HTTP_PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, 100, cfg.Analysis.DefaultTxLimit)
	assert.Equal(t, 500, cfg.Analysis.MaxTxLimit)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 10.0, cfg.Providers.Helius.RPS)
	assert.Equal(t, 0.5, cfg.Providers.CoinGecko.RPS)
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
analysis:
  default_tx_limit: 50
  max_tx_limit: 200
providers:
  helius:
    api_key: file-key
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 50, cfg.Analysis.DefaultTxLimit)
	assert.Equal(t, "file-key", cfg.Providers.Helius.APIKey)
	// Provider defaults survive a file that never mentions them.
	assert.Equal(t, 20, cfg.Providers.Helius.TimeoutSeconds)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
providers:
  helius:
    api_key: file-key
`)
	t.Setenv("HELIUS_API_KEY", "env-key")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("HTTP_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Providers.Helius.APIKey)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestInvalidPortRejected(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 99999\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLimitOrderingValidated(t *testing.T) {
	path := writeConfig(t, `
analysis:
  default_tx_limit: 300
  max_tx_limit: 100
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tx_limit")
}

func TestMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
