// Package upstream talks to the openFDA REST API: the HTTP client, failure
// classification and the retry controller.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"rxmcp/internal/config"
	"rxmcp/internal/metrics"
)

const (
	maxResponseSize = 32 << 20
	userAgent       = "rxmcp/1.0"
)

// ClientConfig holds openFDA client configuration
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Breaker BreakerConfig
}

// Client is an openFDA HTTP client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *CircuitBreaker
	metrics    *metrics.Recorder
	logger     zerolog.Logger
}

// NewClient creates a new openFDA client
func NewClient(cfg ClientConfig, rec *metrics.Recorder, logger zerolog.Logger) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		breaker: NewCircuitBreaker(cfg.Breaker, nil),
		metrics: rec,
		logger:  logger.With().Str("component", "openfda").Logger(),
	}
}

// NewClientFromConfig creates a client from the upstream config section
func NewClientFromConfig(cfg config.UpstreamConfig, rec *metrics.Recorder, logger zerolog.Logger) *Client {
	cc := ClientConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.GetRequestTimeoutDuration(),
	}
	if cfg.CircuitBreaker != nil {
		cc.Breaker = BreakerConfig{
			Enabled:             cfg.CircuitBreaker.Enabled,
			FailureThreshold:    cfg.CircuitBreaker.FailureThreshold,
			RecoveryTimeout:     time.Duration(cfg.CircuitBreaker.RecoveryTimeout) * time.Millisecond,
			HalfOpenMaxRequests: cfg.CircuitBreaker.HalfOpenMaxRequests,
		}
	}
	return NewClient(cc, rec, logger)
}

// NewRetryerFromConfig creates a retryer from the upstream config section
func NewRetryerFromConfig(cfg config.UpstreamConfig, rec *metrics.Recorder, logger zerolog.Logger) *Retryer {
	return NewRetryer(RetryConfig{
		MaxRetries:     cfg.GetMaxRetries(),
		AttemptTimeout: cfg.GetRequestTimeoutDuration(),
		MaxDelay:       cfg.GetMaxRetryDelayDuration(),
		Classifier: Classifier{
			ServerErrorDelay:  time.Duration(cfg.ServerErrorDelay) * time.Millisecond,
			RateLimitDelay:    time.Duration(cfg.RateLimitDelay) * time.Millisecond,
			NetworkErrorDelay: time.Duration(cfg.NetworkErrorDelay) * time.Millisecond,
		},
		OnRetry: func(op string, attempt int, c Classification, delay time.Duration) {
			rec.UpstreamRetry(context.Background(), string(c.Category))
		},
	}, logger)
}

// BreakerState returns the circuit breaker state
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// URL builds the request URL for an endpoint and query
func (c *Client) URL(endpoint Endpoint, q Query) string {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		params.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	u := c.baseURL + string(endpoint)
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// Fetch performs one GET against an openFDA endpoint.
// Non-200 responses are returned as *StatusError.
func (c *Client) Fetch(ctx context.Context, endpoint Endpoint, q Query) (*Page, error) {
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(endpoint, q), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.Failure()
		c.metrics.UpstreamRequest(ctx, string(endpoint), 0)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.UpstreamRequest(ctx, string(endpoint), resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.breaker.Failure()
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("endpoint", string(endpoint)).
		Str("search", q.Search).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("openfda request")

	var env envelope
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 {
			c.breaker.Failure()
		} else {
			c.breaker.Success()
		}
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if json.Unmarshal(body, &env) == nil && env.Error != nil {
			statusErr.Code = env.Error.Code
			statusErr.Message = env.Error.Message
		}
		return nil, statusErr
	}
	c.breaker.Success()

	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode openfda response: %w", err)
	}

	total := env.Meta.Results.Total
	if total == 0 {
		total = len(env.Results)
	}
	return &Page{Total: total, Results: env.Results}, nil
}

// Close releases idle connections
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
