package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultBaseURL, cfg.Upstream.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.GetRequestTimeoutDuration())
	assert.Equal(t, DefaultMaxRetries, cfg.Upstream.GetMaxRetries())
	assert.Equal(t, DefaultScoring, cfg.Scoring)

	label, shortage, recall, adverse := cfg.Cache.TTLs()
	assert.Equal(t, 24*time.Hour, label)
	assert.Equal(t, 30*time.Minute, shortage)
	assert.Equal(t, time.Duration(0), recall)
	assert.Equal(t, 4*time.Hour, adverse)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"port": 9090,
		"logLevel": "debug",
		"upstream": {"baseUrl": "http://localhost:1234/", "maxRetries": 1},
		"cache": {"shortageTtl": 60, "recallTtl": 0},
		"scoring": {"exact": 90, "substring": 50}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://localhost:1234", cfg.Upstream.BaseURL)
	assert.Equal(t, 1, cfg.Upstream.GetMaxRetries())
	assert.Equal(t, 90, cfg.Scoring.Exact)
	assert.Equal(t, 0, cfg.Scoring.Active)

	_, shortage, recall, _ := cfg.Cache.TTLs()
	assert.Equal(t, time.Minute, shortage)
	assert.Equal(t, time.Duration(0), recall)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
port: 7070
cache:
  backend: none
  labelTtl: 3600
operations:
  batchConcurrency: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, BackendNone, cfg.Cache.Backend)
	assert.Equal(t, 2, cfg.Operations.BatchConcurrency)
	label, _, _, _ := cfg.Cache.TTLs()
	assert.Equal(t, time.Hour, label)
}

func TestLoad_ZeroRetriesIsKept(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.json", `{"upstream": {"maxRetries": 0}}`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Upstream.MaxRetries)
	assert.Equal(t, 0, cfg.Upstream.GetMaxRetries())

	cfg, err = Load(writeFile(t, "config.yaml", "upstream:\n  maxRetries: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Upstream.GetMaxRetries())
}

func TestLoad_BreakerDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.json", `{"upstream": {"circuitBreaker": {"enabled": true}}}`))
	require.NoError(t, err)
	assert.True(t, cfg.Upstream.IsCircuitBreakerEnabled())
	assert.Equal(t, DefaultFailureThreshold, cfg.Upstream.CircuitBreaker.FailureThreshold)

	// a disabled breaker is not held to the retry bound
	cfg, err = Load(writeFile(t, "config.json", `{"upstream": {"maxRetries": 4, "circuitBreaker": {"enabled": false, "failureThreshold": 2}}}`))
	require.NoError(t, err)
	assert.False(t, cfg.Upstream.IsCircuitBreakerEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvPort, "8181")
	t.Setenv(EnvLogLevel, "WARN")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Upstream.APIKey)
	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad log level", `{"logLevel": "trace"}`},
		{"bad port", `{"port": 70000}`},
		{"relative base url", `{"upstream": {"baseUrl": "api.fda.gov"}}`},
		{"negative retries", `{"upstream": {"maxRetries": -1}}`},
		{"breaker threshold within retries", `{"upstream": {"maxRetries": 3, "circuitBreaker": {"enabled": true, "failureThreshold": 3}}}`},
		{"breaker default threshold within retries", `{"upstream": {"maxRetries": 5, "circuitBreaker": {"enabled": true}}}`},
		{"redis without url", `{"cache": {"backend": "redis"}}`},
		{"unknown backend", `{"cache": {"backend": "memcached"}}`},
		{"negative ttl", `{"cache": {"labelTtl": -5}}`},
		{"negative weight", `{"scoring": {"exact": -1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.json", tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
