package config

import "time"

// Cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config represents the main configuration structure
type Config struct {
	Host        string         `json:"host" yaml:"host"`
	Port        int            `json:"port" yaml:"port"`
	LogLevel    string         `json:"logLevel" yaml:"logLevel"`
	MaxBodySize int64          `json:"maxBodySize" yaml:"maxBodySize"`
	ServerName  string         `json:"serverName" yaml:"serverName"`
	KeepAlive   int            `json:"keepAlive" yaml:"keepAlive"` // ms - SSE keep-alive interval
	Upstream    UpstreamConfig `json:"upstream" yaml:"upstream"`
	Cache       CacheConfig    `json:"cache" yaml:"cache"`
	Scoring     ScoringConfig  `json:"scoring" yaml:"scoring"`
	Operations  OpsConfig      `json:"operations" yaml:"operations"`
}

// UpstreamConfig configures the openFDA client and its retry policy
type UpstreamConfig struct {
	BaseURL           string         `json:"baseUrl" yaml:"baseUrl"`
	APIKey            string         `json:"apiKey" yaml:"apiKey"`
	RequestTimeout    int            `json:"requestTimeout" yaml:"requestTimeout"`       // ms - per attempt
	MaxRetries        *int           `json:"maxRetries" yaml:"maxRetries"`               // retries after the first attempt; nil uses the default
	ServerErrorDelay  int            `json:"serverErrorDelay" yaml:"serverErrorDelay"`   // ms
	RateLimitDelay    int            `json:"rateLimitDelay" yaml:"rateLimitDelay"`       // ms
	NetworkErrorDelay int            `json:"networkErrorDelay" yaml:"networkErrorDelay"` // ms
	MaxRetryDelay     int            `json:"maxRetryDelay" yaml:"maxRetryDelay"`         // ms
	CircuitBreaker    *BreakerConfig `json:"circuitBreaker,omitempty" yaml:"circuitBreaker,omitempty"`
}

// BreakerConfig configures the upstream circuit breaker
type BreakerConfig struct {
	Enabled             bool `json:"enabled" yaml:"enabled"`
	FailureThreshold    int  `json:"failureThreshold" yaml:"failureThreshold"`
	RecoveryTimeout     int  `json:"recoveryTimeout" yaml:"recoveryTimeout"` // ms
	HalfOpenMaxRequests int  `json:"halfOpenMaxRequests" yaml:"halfOpenMaxRequests"`
}

// CacheConfig represents cache configuration.
// TTLs are in seconds; a nil TTL uses the default, zero disables caching for the category.
type CacheConfig struct {
	Backend       string `json:"backend" yaml:"backend"`
	Size          int    `json:"size" yaml:"size"`                   // number of entries
	SweepInterval int    `json:"sweepInterval" yaml:"sweepInterval"` // seconds
	RedisURL      string `json:"redisUrl" yaml:"redisUrl"`
	RedisPrefix   string `json:"redisPrefix" yaml:"redisPrefix"`
	LabelTTL      *int   `json:"labelTtl,omitempty" yaml:"labelTtl,omitempty"`
	ShortageTTL   *int   `json:"shortageTtl,omitempty" yaml:"shortageTtl,omitempty"`
	RecallTTL     *int   `json:"recallTtl,omitempty" yaml:"recallTtl,omitempty"`
	AdverseTTL    *int   `json:"adverseEventTtl,omitempty" yaml:"adverseEventTtl,omitempty"`
}

// ScoringConfig holds the shortage relevance weights
type ScoringConfig struct {
	Exact        int `json:"exact" yaml:"exact"`
	Substring    int `json:"substring" yaml:"substring"`
	Reverse      int `json:"reverse" yaml:"reverse"`
	Active       int `json:"active" yaml:"active"`
	Reason       int `json:"reason" yaml:"reason"`
	Availability int `json:"availability" yaml:"availability"`
}

// OpsConfig tunes the operation layer
type OpsConfig struct {
	MaxSectionLength int `json:"maxSectionLength" yaml:"maxSectionLength"`
	BatchConcurrency int `json:"batchConcurrency" yaml:"batchConcurrency"`
	TrendSampleSize  int `json:"trendSampleSize" yaml:"trendSampleSize"`
}

// Default values
const (
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 8080
	DefaultLogLevel          = "info"
	DefaultMaxBodySize       = int64(1 << 20)
	DefaultServerName        = "rxmcp"
	DefaultKeepAlive         = 15000 // ms
	DefaultBaseURL           = "https://api.fda.gov"
	DefaultRequestTimeout    = 15000 // ms
	DefaultMaxRetries        = 3
	DefaultFailureThreshold  = 5
	DefaultServerErrorDelay  = 30000 // ms
	DefaultRateLimitDelay    = 60000 // ms
	DefaultNetworkErrorDelay = 5000  // ms
	DefaultMaxRetryDelay     = 120000
	DefaultCacheBackend      = BackendMemory
	DefaultCacheSize         = 5000
	DefaultSweepInterval     = 300 // seconds
	DefaultRedisPrefix       = "rxmcp:"
	DefaultLabelTTL          = 24 * 60 * 60
	DefaultShortageTTL       = 30 * 60
	DefaultRecallTTL         = 0 // recalls always reflect the latest upstream state
	DefaultAdverseTTL        = 4 * 60 * 60
	DefaultMaxSectionLength  = 1500
	DefaultBatchConcurrency  = 5
	DefaultTrendSampleSize   = 100
)

// Default scoring weights
var DefaultScoring = ScoringConfig{
	Exact:        100,
	Substring:    60,
	Reverse:      40,
	Active:       20,
	Reason:       10,
	Availability: 5,
}

// Address returns host:port
func (c *Config) Address() string {
	return joinHostPort(c.Host, c.Port)
}

// GetKeepAliveDuration returns the SSE keep-alive interval as time.Duration
func (c *Config) GetKeepAliveDuration() time.Duration {
	return time.Duration(c.KeepAlive) * time.Millisecond
}

// GetRequestTimeoutDuration returns the per-attempt timeout as time.Duration
func (u *UpstreamConfig) GetRequestTimeoutDuration() time.Duration {
	return time.Duration(u.RequestTimeout) * time.Millisecond
}

// GetMaxRetries returns the retry count; an explicit zero disables retries
func (u *UpstreamConfig) GetMaxRetries() int {
	if u.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *u.MaxRetries
}

// GetMaxRetryDelayDuration returns the backoff cap as time.Duration
func (u *UpstreamConfig) GetMaxRetryDelayDuration() time.Duration {
	return time.Duration(u.MaxRetryDelay) * time.Millisecond
}

// IsCircuitBreakerEnabled returns true if the breaker is configured and enabled
func (u *UpstreamConfig) IsCircuitBreakerEnabled() bool {
	return u.CircuitBreaker != nil && u.CircuitBreaker.Enabled
}

// GetSweepIntervalDuration returns the cache sweep interval as time.Duration
func (c *CacheConfig) GetSweepIntervalDuration() time.Duration {
	return time.Duration(c.SweepInterval) * time.Second
}

// TTLs returns the per-category TTLs in category order: label, shortage, recall, adverse event
func (c *CacheConfig) TTLs() (label, shortage, recall, adverse time.Duration) {
	return seconds(c.LabelTTL, DefaultLabelTTL),
		seconds(c.ShortageTTL, DefaultShortageTTL),
		seconds(c.RecallTTL, DefaultRecallTTL),
		seconds(c.AdverseTTL, DefaultAdverseTTL)
}

func seconds(v *int, def int) time.Duration {
	if v == nil {
		return time.Duration(def) * time.Second
	}
	return time.Duration(*v) * time.Second
}
