// Package drugs implements the drug-information operations on top of the
// cache, the strategy resolver and the openFDA client.
package drugs

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"rxmcp/internal/cache"
	"rxmcp/internal/metrics"
	"rxmcp/internal/scoring"
	"rxmcp/internal/search"
	"rxmcp/internal/upstream"
)

// Result status values
const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
)

// Batch bounds
const (
	MaxBatchSize = 25
)

// ErrInvalidArgument marks argument errors detected by the service itself
var ErrInvalidArgument = errors.New("invalid argument")

// Fetcher performs a single openFDA request
type Fetcher interface {
	Fetch(ctx context.Context, endpoint upstream.Endpoint, q upstream.Query) (*upstream.Page, error)
}

// Options tunes the service
type Options struct {
	MaxSectionLength int
	BatchConcurrency int
	TrendSampleSize  int
	Weights          scoring.Weights
	Clock            cache.Clock
}

func (o *Options) applyDefaults() {
	if o.MaxSectionLength <= 0 {
		o.MaxSectionLength = 1500
	}
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = 5
	}
	if o.TrendSampleSize <= 0 {
		o.TrendSampleSize = 100
	}
	if o.Weights == (scoring.Weights{}) {
		o.Weights = scoring.DefaultWeights()
	}
	if o.Clock == nil {
		o.Clock = cache.SystemClock{}
	}
}

// Service runs the drug-information operations
type Service struct {
	fetcher Fetcher
	retryer *upstream.Retryer
	store   cache.Store
	scorer  *scoring.Scorer
	opts    Options
	group   singleflight.Group
	metrics *metrics.Recorder
	logger  zerolog.Logger
}

// NewService creates a new Service. A nil store disables caching.
func NewService(fetcher Fetcher, retryer *upstream.Retryer, store cache.Store, opts Options, rec *metrics.Recorder, logger zerolog.Logger) *Service {
	opts.applyDefaults()
	if store == nil {
		store = cache.NewNoopStore()
	}
	return &Service{
		fetcher: fetcher,
		retryer: retryer,
		store:   store,
		scorer:  scoring.NewScorer(opts.Weights),
		opts:    opts,
		metrics: rec,
		logger:  logger.With().Str("component", "drugs").Logger(),
	}
}

// cacheable is implemented by results that know whether they hold data
type cacheable interface {
	found() bool
}

// cached returns the cached result for (op, args) or builds, stores and returns it.
// Concurrent misses for the same key share one build. Upstream work runs on a
// context detached from the caller so a disconnecting client does not abort it.
func cached[T cacheable](ctx context.Context, s *Service, op string, category cache.Category, args any, build func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	key := cache.GenerateKey(op, args)

	if data, ok := s.store.Get(ctx, key, category); ok {
		var out T
		if err := json.Unmarshal(data, &out); err == nil {
			s.metrics.CacheLookup(ctx, op, true)
			s.logger.Debug().Str("op", op).Str("key", key).Msg("cache hit")
			return out, nil
		}
		s.logger.Warn().Str("op", op).Str("key", key).Msg("discarding undecodable cache entry")
	}
	s.metrics.CacheLookup(ctx, op, false)

	detached := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		result, err := build(detached)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s result: %w", op, err)
		}
		if result.found() {
			s.store.Put(detached, key, data, category)
		}
		return data, nil
	})
	if err != nil {
		return zero, err
	}
	if shared {
		s.logger.Debug().Str("op", op).Str("key", key).Msg("coalesced concurrent lookup")
	}

	var out T
	if err := json.Unmarshal(v.([]byte), &out); err != nil {
		return zero, fmt.Errorf("failed to decode %s result: %w", op, err)
	}
	return out, nil
}

// resolve runs strategies against endpoint, each strategy under the retry controller
func (s *Service) resolve(ctx context.Context, op string, endpoint upstream.Endpoint, strategies []search.Strategy, limit int) (*search.Result, error) {
	res, err := search.Resolve(ctx, strategies, func(ctx context.Context, st search.Strategy) (*upstream.Page, error) {
		return upstream.Do(ctx, s.retryer, op+"/"+st.Name, func(ctx context.Context) (*upstream.Page, error) {
			return s.fetcher.Fetch(ctx, endpoint, upstream.Query{Search: st.Query, Limit: limit})
		})
	})
	if err != nil {
		return nil, err
	}

	event := s.logger.Debug().Str("op", op).Strs("attempted", res.Attempted)
	if res.Found {
		event = event.Str("strategy", res.Strategy.Name).Int("total", res.Page.Total)
	}
	event.Msg("strategies resolved")
	return res, nil
}

// meta fills the fields shared by every result
func (s *Service) meta(res *search.Result, source string, suggestions []string) Meta {
	m := Meta{
		Status:              StatusOK,
		StrategiesAttempted: res.Attempted,
		DataSource:          source,
		Timestamp:           s.now().Format(time.RFC3339),
	}
	if res.Found {
		m.StrategyUsed = res.Strategy.Name
		m.TotalFound = res.Page.Total
	} else {
		m.Status = StatusNoData
		m.Suggestions = suggestions
	}
	return m
}

func (s *Service) now() time.Time {
	return s.opts.Clock.Now().UTC()
}
