package cache

import (
	"context"
	"time"
)

// Category selects the TTL applied to a cached payload
type Category string

const (
	CategoryLabel        Category = "label"
	CategoryShortage     Category = "shortage"
	CategoryRecall       Category = "recall"
	CategoryAdverseEvent Category = "adverse_event"
)

// Store defines the interface for operation result caching.
// Implementations must be safe for concurrent use; concurrent writers follow last-writer-wins.
type Store interface {
	// Get returns the payload for key if present and younger than the category TTL
	Get(ctx context.Context, key string, category Category) ([]byte, bool)

	// Put stores the payload. Categories with a zero TTL are never stored.
	Put(ctx context.Context, key string, value []byte, category Category)

	// Sweep removes expired entries and returns how many were removed
	Sweep() int

	// Close releases any resources held by the store
	Close()
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// TTLTable maps categories to their time-to-live.
// A missing or zero entry means the category is never cached.
type TTLTable map[Category]time.Duration

// DefaultTTLs returns the built-in TTL policy
func DefaultTTLs() TTLTable {
	return TTLTable{
		CategoryLabel:        24 * time.Hour,
		CategoryShortage:     30 * time.Minute,
		CategoryRecall:       0,
		CategoryAdverseEvent: 4 * time.Hour,
	}
}

// TTL returns the TTL for a category
func (t TTLTable) TTL(c Category) time.Duration {
	return t[c]
}

// Cacheable returns true if payloads of the category may be stored
func (t TTLTable) Cacheable(c Category) bool {
	return t[c] > 0
}

// entry is a cached payload. Validity is computed on read from createdAt.
type entry struct {
	payload   []byte
	createdAt time.Time
	category  Category
}

func (e *entry) valid(now time.Time, ttls TTLTable) bool {
	ttl := ttls.TTL(e.category)
	return ttl > 0 && now.Sub(e.createdAt) < ttl
}
