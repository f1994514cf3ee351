package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values
const (
	EnvAPIKey   = "OPENFDA_API_KEY"
	EnvPort     = "RXMCP_PORT"
	EnvLogLevel = "RXMCP_LOG_LEVEL"
	EnvRedisURL = "RXMCP_REDIS_URL"
)

// Load reads and parses the configuration file.
// An empty path yields the defaults. Files ending in .yaml or .yml are parsed as YAML, anything else as JSON.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(cfg, os.Getenv)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration built from defaults only
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// applyEnv overrides file values with environment variables
func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvAPIKey); v != "" {
		cfg.Upstream.APIKey = v
	}
	if v := getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getenv(EnvRedisURL); v != "" {
		cfg.Cache.RedisURL = v
		if cfg.Cache.Backend == "" {
			cfg.Cache.Backend = BackendRedis
		}
	}
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.ServerName == "" {
		cfg.ServerName = DefaultServerName
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}

	up := &cfg.Upstream
	if up.BaseURL == "" {
		up.BaseURL = DefaultBaseURL
	}
	up.BaseURL = strings.TrimRight(up.BaseURL, "/")
	if up.RequestTimeout == 0 {
		up.RequestTimeout = DefaultRequestTimeout
	}
	if up.MaxRetries == nil {
		n := DefaultMaxRetries
		up.MaxRetries = &n
	}
	if up.ServerErrorDelay == 0 {
		up.ServerErrorDelay = DefaultServerErrorDelay
	}
	if up.RateLimitDelay == 0 {
		up.RateLimitDelay = DefaultRateLimitDelay
	}
	if up.NetworkErrorDelay == 0 {
		up.NetworkErrorDelay = DefaultNetworkErrorDelay
	}
	if up.MaxRetryDelay == 0 {
		up.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if up.CircuitBreaker != nil && up.CircuitBreaker.FailureThreshold == 0 {
		up.CircuitBreaker.FailureThreshold = DefaultFailureThreshold
	}

	c := &cfg.Cache
	if c.Backend == "" {
		c.Backend = DefaultCacheBackend
	}
	if c.Size == 0 {
		c.Size = DefaultCacheSize
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.RedisPrefix == "" {
		c.RedisPrefix = DefaultRedisPrefix
	}

	// All-zero weights means the section was omitted
	if cfg.Scoring == (ScoringConfig{}) {
		cfg.Scoring = DefaultScoring
	}

	ops := &cfg.Operations
	if ops.MaxSectionLength == 0 {
		ops.MaxSectionLength = DefaultMaxSectionLength
	}
	if ops.BatchConcurrency == 0 {
		ops.BatchConcurrency = DefaultBatchConcurrency
	}
	if ops.TrendSampleSize == 0 {
		ops.TrendSampleSize = DefaultTrendSampleSize
	}
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return errors.New("logLevel must be one of: debug, info, warn, error")
	}

	if cfg.MaxBodySize < 0 {
		return errors.New("maxBodySize must be non-negative")
	}

	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.baseUrl %q is not an absolute URL", cfg.Upstream.BaseURL)
	}

	if cfg.Upstream.RequestTimeout < 0 {
		return errors.New("upstream.requestTimeout must be non-negative")
	}
	if cfg.Upstream.GetMaxRetries() < 0 {
		return errors.New("upstream.maxRetries must be non-negative")
	}
	// A single call makes up to maxRetries+1 attempts; the breaker must not trip inside one call
	if cfg.Upstream.IsCircuitBreakerEnabled() && cfg.Upstream.CircuitBreaker.FailureThreshold <= cfg.Upstream.GetMaxRetries() {
		return fmt.Errorf("upstream.circuitBreaker.failureThreshold (%d) must exceed upstream.maxRetries (%d)",
			cfg.Upstream.CircuitBreaker.FailureThreshold, cfg.Upstream.GetMaxRetries())
	}
	if cfg.Upstream.ServerErrorDelay < 0 || cfg.Upstream.RateLimitDelay < 0 || cfg.Upstream.NetworkErrorDelay < 0 {
		return errors.New("upstream retry delays must be non-negative")
	}

	switch cfg.Cache.Backend {
	case BackendMemory, BackendNone:
	case BackendRedis:
		if cfg.Cache.RedisURL == "" {
			return errors.New("cache.redisUrl is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be one of: %s, %s, %s", BackendMemory, BackendRedis, BackendNone)
	}
	if cfg.Cache.Size < 0 {
		return errors.New("cache.size must be non-negative")
	}
	if cfg.Cache.SweepInterval < 0 {
		return errors.New("cache.sweepInterval must be non-negative")
	}
	for name, ttl := range map[string]*int{
		"labelTtl":        cfg.Cache.LabelTTL,
		"shortageTtl":     cfg.Cache.ShortageTTL,
		"recallTtl":       cfg.Cache.RecallTTL,
		"adverseEventTtl": cfg.Cache.AdverseTTL,
	} {
		if ttl != nil && *ttl < 0 {
			return fmt.Errorf("cache.%s must be non-negative", name)
		}
	}

	s := cfg.Scoring
	for _, w := range []int{s.Exact, s.Substring, s.Reverse, s.Active, s.Reason, s.Availability} {
		if w < 0 {
			return errors.New("scoring weights must be non-negative")
		}
	}

	if cfg.Operations.BatchConcurrency < 0 {
		return errors.New("operations.batchConcurrency must be non-negative")
	}

	return nil
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
