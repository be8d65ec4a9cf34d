package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, Duration(time.Second), cfg.Retry.InitialDelay)
	assert.Equal(t, 7.0, cfg.Retry.BackoffMultiplier)
	assert.Equal(t, []int{429, 500, 503, 504}, cfg.Retry.RetryableStatusCodes)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: openai
model: gpt-4o-mini
retry:
  max_attempts: 3
  initial_delay: 2s
  max_delay: 1m
  backoff_multiplier: 2
  retryable_status_codes: [429, 503]
max_loop_iterations: 4
server:
  addr: ":9090"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, Duration(2*time.Second), cfg.Retry.InitialDelay)
	assert.Equal(t, []int{429, 503}, cfg.Retry.RetryableStatusCodes)
	assert.Equal(t, 4, cfg.MaxLoopIterations)
	assert.Equal(t, ":9090", cfg.Server.Addr)

	// Untouched sections keep their defaults.
	assert.Equal(t, 100, cfg.MaxModelCalls)
}

func TestLoad_InvalidProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: cohere\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Retry.MaxAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Model = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Retry.BackoffMultiplier = 0.5
	assert.Error(t, cfg.Validate())
}

func TestToRetryConfig(t *testing.T) {
	cfg := Default()
	rc := cfg.ToRetryConfig()

	assert.Equal(t, 5, rc.MaxAttempts)
	assert.Equal(t, time.Second, rc.InitialDelay)
	assert.Equal(t, 7.0, rc.BackoffMultiplier)
	assert.Equal(t, []int{429, 500, 503, 504}, rc.RetryableStatusCodes)
}
