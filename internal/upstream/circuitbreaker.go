package upstream

import (
	"sync"
	"time"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// BreakerConfig holds circuit breaker configuration
type BreakerConfig struct {
	Enabled             bool
	FailureThreshold    int
	RecoveryTimeout     time.Duration
	HalfOpenMaxRequests int
}

// CircuitBreaker stops calls to openFDA after consecutive server or network failures.
// A disabled breaker always allows requests.
type CircuitBreaker struct {
	cfg           BreakerConfig
	now           func() time.Time
	state         breakerState
	failures      int
	trials        int
	trialSuccess  int
	lastFailureAt time.Time
	mu            sync.Mutex
}

// NewCircuitBreaker creates a new CircuitBreaker. now may be nil to use the wall clock.
func NewCircuitBreaker(cfg BreakerConfig, now func() time.Time) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = 2
	}
	if now == nil {
		now = time.Now
	}
	return &CircuitBreaker{cfg: cfg, now: now}
}

// Allow returns true if a request may be sent
func (cb *CircuitBreaker) Allow() bool {
	if !cb.cfg.Enabled {
		return true
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case breakerOpen:
		if cb.now().Sub(cb.lastFailureAt) < cb.cfg.RecoveryTimeout {
			return false
		}
		cb.state = breakerHalfOpen
		cb.trials = 0
		cb.trialSuccess = 0
		fallthrough
	case breakerHalfOpen:
		if cb.trials >= cb.cfg.HalfOpenMaxRequests {
			return false
		}
		cb.trials++
		return true
	default:
		return true
	}
}

// Success records a healthy upstream response
func (cb *CircuitBreaker) Success() {
	if !cb.cfg.Enabled {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case breakerHalfOpen:
		cb.trialSuccess++
		if cb.trialSuccess >= cb.cfg.HalfOpenMaxRequests {
			cb.state = breakerClosed
			cb.failures = 0
		}
	case breakerClosed:
		cb.failures = 0
	}
}

// Failure records a server or network failure
func (cb *CircuitBreaker) Failure() {
	if !cb.cfg.Enabled {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureAt = cb.now()

	switch cb.state {
	case breakerClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.state = breakerOpen
		}
	case breakerHalfOpen:
		cb.state = breakerOpen
	}
}

// State returns the breaker state name: closed, open or half_open
func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state.String()
}
