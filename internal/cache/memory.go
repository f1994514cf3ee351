package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore is an in-memory LRU store with per-category TTLs
type MemoryStore struct {
	cache *lru.Cache[string, *entry]
	ttls  TTLTable
	clock Clock
	mu    sync.Mutex

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryStore creates a new in-memory store bounded to size entries
func NewMemoryStore(size int, ttls TTLTable, clock Clock) (*MemoryStore, error) {
	cache, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, err
	}
	if ttls == nil {
		ttls = DefaultTTLs()
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &MemoryStore{
		cache: cache,
		ttls:  ttls,
		clock: clock,
		stop:  make(chan struct{}),
	}, nil
}

// Get retrieves a payload from the store
func (ms *MemoryStore) Get(_ context.Context, key string, category Category) ([]byte, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, ok := ms.cache.Get(key)
	if !ok {
		return nil, false
	}

	if e.category != category || !e.valid(ms.clock.Now(), ms.ttls) {
		ms.cache.Remove(key)
		return nil, false
	}

	return e.payload, true
}

// Put stores a payload, replacing any entry with the same key
func (ms *MemoryStore) Put(_ context.Context, key string, value []byte, category Category) {
	if !ms.ttls.Cacheable(category) {
		return
	}

	e := &entry{
		payload:   value,
		createdAt: ms.clock.Now(),
		category:  category,
	}

	ms.mu.Lock()
	ms.cache.Add(key, e)
	ms.mu.Unlock()
}

// Len returns the number of entries, including expired ones not yet swept
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.cache.Len()
}

// Sweep removes all expired entries from the store
func (ms *MemoryStore) Sweep() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.clock.Now()
	removed := 0
	for _, key := range ms.cache.Keys() {
		e, ok := ms.cache.Peek(key)
		if ok && !e.valid(now, ms.ttls) {
			ms.cache.Remove(key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until Close is called.
// onSweep, if set, is called with the number of removed entries.
func (ms *MemoryStore) StartSweeper(interval time.Duration, onSweep func(removed int)) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ms.stop:
				return
			case <-ticker.C:
				removed := ms.Sweep()
				if onSweep != nil {
					onSweep(removed)
				}
			}
		}
	}()
}

// Close stops the sweeper if it was started
func (ms *MemoryStore) Close() {
	ms.stopOnce.Do(func() {
		close(ms.stop)
	})
}

// NoopStore is a store that does nothing (used when caching is disabled)
type NoopStore struct{}

// NewNoopStore creates a new no-op store
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

// Get always returns not found
func (ns *NoopStore) Get(_ context.Context, _ string, _ Category) ([]byte, bool) {
	return nil, false
}

// Put does nothing
func (ns *NoopStore) Put(_ context.Context, _ string, _ []byte, _ Category) {}

// Sweep does nothing
func (ns *NoopStore) Sweep() int { return 0 }

// Close does nothing
func (ns *NoopStore) Close() {}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*NoopStore)(nil)
)
