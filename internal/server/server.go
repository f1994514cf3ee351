// Package server exposes the MCP dispatcher over HTTP, SSE and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"rxmcp/internal/cache"
	"rxmcp/internal/config"
	"rxmcp/internal/drugs"
	"rxmcp/internal/mcp"
	"rxmcp/internal/metrics"
	"rxmcp/internal/scoring"
	"rxmcp/internal/tools"
	"rxmcp/internal/upstream"
)

// Version is reported in the initialize handshake and on the info endpoint
var Version = "dev"

// Server represents the main server
type Server struct {
	cfg        *config.Config
	store      cache.Store
	client     *upstream.Client
	registry   *tools.Registry
	dispatcher *mcp.Dispatcher
	metrics    *metrics.Recorder
	meters     *metrics.Provider
	router     chi.Router
	httpServer *http.Server
	sessions   *sessionSet
	started    time.Time
	logger     zerolog.Logger
}

// New creates a new Server and everything behind it
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	meters, err := metrics.NewPrometheusProvider(cfg.ServerName, Version)
	if err != nil {
		return nil, err
	}
	rec, err := metrics.New(meters.Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	store, err := newStore(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	client := upstream.NewClientFromConfig(cfg.Upstream, rec, logger)
	retryer := upstream.NewRetryerFromConfig(cfg.Upstream, rec, logger)

	svc := drugs.NewService(client, retryer, store, drugs.Options{
		MaxSectionLength: cfg.Operations.MaxSectionLength,
		BatchConcurrency: cfg.Operations.BatchConcurrency,
		TrendSampleSize:  cfg.Operations.TrendSampleSize,
		Weights:          scoring.Weights(cfg.Scoring),
	}, rec, logger)

	registry := tools.NewRegistry(svc)
	dispatcher := mcp.NewDispatcher(registry, mcp.ServerInfo{Name: cfg.ServerName, Version: Version}, rec, logger)

	s := &Server{
		cfg:        cfg,
		store:      store,
		client:     client,
		registry:   registry,
		dispatcher: dispatcher,
		metrics:    rec,
		meters:     meters,
		sessions:   newSessionSet(),
		started:    time.Now(),
		logger:     logger.With().Str("component", "server").Logger(),
	}
	s.router = s.routes()

	if ms, ok := store.(*cache.MemoryStore); ok {
		ms.StartSweeper(cfg.Cache.GetSweepIntervalDuration(), func(removed int) {
			rec.CacheSwept(context.Background(), removed)
			if removed > 0 {
				s.logger.Debug().Int("removed", removed).Msg("swept expired cache entries")
			}
		})
	}

	return s, nil
}

// newStore creates the cache backend selected in config
func newStore(cfg config.CacheConfig, logger zerolog.Logger) (cache.Store, error) {
	label, shortage, recall, adverse := cfg.TTLs()
	ttls := cache.TTLTable{
		cache.CategoryLabel:        label,
		cache.CategoryShortage:     shortage,
		cache.CategoryRecall:       recall,
		cache.CategoryAdverseEvent: adverse,
	}

	switch cfg.Backend {
	case config.BackendNone:
		logger.Info().Msg("cache disabled")
		return cache.NewNoopStore(), nil

	case config.BackendRedis:
		rs := cache.NewRedisStore(cfg.RedisURL, cfg.RedisPrefix, ttls, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			// Lookups degrade to misses until Redis is reachable
			logger.Warn().Err(err).Msg("redis cache unreachable at startup")
		}
		logger.Info().Str("prefix", cfg.RedisPrefix).Msg("redis cache enabled")
		return rs, nil

	default:
		ms, err := cache.NewMemoryStore(cfg.Size, ttls, cache.SystemClock{})
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		logger.Info().
			Int("size", cfg.Size).
			Dur("shortageTtl", shortage).
			Dur("labelTtl", label).
			Dur("adverseEventTtl", adverse).
			Msg("memory cache enabled")
		return ms, nil
	}
}

// Handler returns the HTTP handler serving all endpoints
func (s *Server) Handler() http.Handler {
	return s.router
}

// Dispatcher returns the MCP dispatcher
func (s *Server) Dispatcher() *mcp.Dispatcher {
	return s.dispatcher
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := s.cfg.Address()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info().
			Str("addr", addr).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Str("ws", fmt.Sprintf("ws://%s/mcp/ws", addr)).
			Msg("starting MCP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server...")

	// Long-lived streams do not end on their own
	s.sessions.CloseAll()

	var httpErr error
	if s.httpServer != nil {
		httpErr = s.httpServer.Shutdown(ctx)
	}

	s.client.Close()
	s.store.Close()
	if err := s.meters.Shutdown(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("meter provider shutdown")
	}

	if httpErr != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", httpErr)
	}

	s.logger.Info().Msg("server stopped")
	return nil
}
