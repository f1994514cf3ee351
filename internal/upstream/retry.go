package upstream

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// Retry defaults
const (
	DefaultAttemptTimeout    = 15 * time.Second
	DefaultMaxRetryDelay     = 2 * time.Minute
	DefaultBackoffMultiplier = 1.5
)

// RetryConfig configures the retry controller
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// AttemptTimeout bounds every single attempt
	AttemptTimeout time.Duration
	// MaxDelay caps the backoff delay
	MaxDelay time.Duration
	// Multiplier is the exponential backoff base
	Multiplier float64
	Classifier Classifier
	// OnRetry is called before sleeping for a retry
	OnRetry func(op string, attempt int, c Classification, delay time.Duration)
}

// ClassifiedError is returned when an upstream call fails permanently or exhausts its retries
type ClassifiedError struct {
	Op             string
	Classification Classification
	Attempts       int
	StatusCode     int
	Err            error
}

// Error implements the error interface
func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s failed with %s after %d attempt(s): %v", e.Op, e.Classification.Category, e.Attempts, e.Err)
}

// Unwrap returns the underlying error
func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// RetryRecommended reports whether the caller may usefully try again later
func (e *ClassifiedError) RetryRecommended() bool {
	return e.Classification.Retryable
}

// Retryer executes upstream calls with classification-driven retries
type Retryer struct {
	cfg    RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
	logger zerolog.Logger
}

// NewRetryer creates a new Retryer
func NewRetryer(cfg RetryConfig, logger zerolog.Logger) *Retryer {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxRetryDelay
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = DefaultBackoffMultiplier
	}
	return &Retryer{
		cfg:    cfg,
		sleep:  sleepContext,
		logger: logger.With().Str("component", "retry").Logger(),
	}
}

// WithSleep replaces the sleep function. Used by tests to avoid real delays.
func (r *Retryer) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Retryer {
	r.sleep = sleep
	return r
}

// Delay returns the backoff before the retry that follows attempt
func (r *Retryer) Delay(base time.Duration, attempt int) time.Duration {
	delay := time.Duration(float64(base) * math.Pow(r.cfg.Multiplier, float64(attempt-1)))
	if delay > r.cfg.MaxDelay {
		delay = r.cfg.MaxDelay
	}
	return delay
}

// Classifier returns the classifier used by the retryer
func (r *Retryer) Classifier() Classifier {
	return r.cfg.Classifier
}

// Do runs fn until it succeeds, fails permanently or exhausts the retry budget.
// A not_found failure yields the zero value and a nil error.
func Do[T any](ctx context.Context, r *Retryer, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := r.cfg.MaxRetries + 1

	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		result, err := fn(attemptCtx)
		cancel()

		if err == nil {
			return result, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		c := r.cfg.Classifier.Classify(err)
		if c.Category == CategoryNotFound {
			r.logger.Debug().
				Str("op", op).
				Int("attempt", attempt).
				Msg("no matching records")
			return zero, nil
		}

		if !c.Retryable || attempt >= maxAttempts {
			r.logger.Warn().
				Err(err).
				Str("op", op).
				Str("category", string(c.Category)).
				Int("attempts", attempt).
				Msg("upstream call failed")
			return zero, &ClassifiedError{
				Op:             op,
				Classification: c,
				Attempts:       attempt,
				StatusCode:     statusCode(err),
				Err:            err,
			}
		}

		delay := r.Delay(c.BaseDelay, attempt)
		r.logger.Debug().
			Err(err).
			Str("op", op).
			Str("category", string(c.Category)).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("retrying upstream call")

		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(op, attempt, c, delay)
		}

		if err := r.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func statusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
