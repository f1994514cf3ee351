package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStore(t *testing.T, clock Clock) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore(100, DefaultTTLs(), clock)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestMemoryStore_GetPut(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, newFakeClock())

	_, ok := s.Get(ctx, "k", CategoryLabel)
	assert.False(t, ok)

	s.Put(ctx, "k", []byte(`{"a":1}`), CategoryLabel)
	got, ok := s.Get(ctx, "k", CategoryLabel)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestMemoryStore_ExpiresPerCategory(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newStore(t, clock)

	s.Put(ctx, "label", []byte("l"), CategoryLabel)
	s.Put(ctx, "shortage", []byte("s"), CategoryShortage)

	clock.Advance(29 * time.Minute)
	_, ok := s.Get(ctx, "shortage", CategoryShortage)
	assert.True(t, ok, "shortage still fresh before TTL")

	clock.Advance(time.Minute)
	_, ok = s.Get(ctx, "shortage", CategoryShortage)
	assert.False(t, ok, "shortage expired at TTL")

	_, ok = s.Get(ctx, "label", CategoryLabel)
	assert.True(t, ok, "label outlives shortage TTL")
}

func TestMemoryStore_RecallsNeverStored(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, newFakeClock())

	s.Put(ctx, "recall", []byte("r"), CategoryRecall)
	_, ok := s.Get(ctx, "recall", CategoryRecall)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_CategoryMismatchIsMiss(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, newFakeClock())

	s.Put(ctx, "k", []byte("v"), CategoryLabel)
	_, ok := s.Get(ctx, "k", CategoryShortage)
	assert.False(t, ok)
}

func TestMemoryStore_OverwriteRefreshesCreatedAt(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newStore(t, clock)

	s.Put(ctx, "k", []byte("old"), CategoryShortage)
	clock.Advance(20 * time.Minute)
	s.Put(ctx, "k", []byte("new"), CategoryShortage)
	clock.Advance(20 * time.Minute)

	got, ok := s.Get(ctx, "k", CategoryShortage)
	require.True(t, ok)
	assert.Equal(t, "new", string(got))
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newStore(t, clock)

	s.Put(ctx, "a", []byte("a"), CategoryShortage)
	s.Put(ctx, "b", []byte("b"), CategoryAdverseEvent)
	s.Put(ctx, "c", []byte("c"), CategoryLabel)

	clock.Advance(time.Hour)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 2, s.Len())

	clock.Advance(4 * time.Hour)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_SweeperRunsIndependently(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newStore(t, clock)

	s.Put(ctx, "a", []byte("a"), CategoryShortage)
	clock.Advance(time.Hour)

	swept := make(chan int, 1)
	s.StartSweeper(5*time.Millisecond, func(removed int) {
		if removed > 0 {
			select {
			case swept <- removed:
			default:
			}
		}
	})

	select {
	case n := <-swept:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not run")
	}
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_LRUBound(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(2, DefaultTTLs(), newFakeClock())
	require.NoError(t, err)
	defer s.Close()

	s.Put(ctx, "a", []byte("a"), CategoryLabel)
	s.Put(ctx, "b", []byte("b"), CategoryLabel)
	s.Put(ctx, "c", []byte("c"), CategoryLabel)

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get(ctx, "a", CategoryLabel)
	assert.False(t, ok)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, SystemClock{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			for j := 0; j < 100; j++ {
				s.Put(ctx, key, []byte(key), CategoryLabel)
				if v, ok := s.Get(ctx, key, CategoryLabel); ok {
					assert.Equal(t, key, string(v))
				}
				s.Sweep()
			}
		}(i)
	}
	wg.Wait()
}

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	s := NewNoopStore()
	s.Put(ctx, "k", []byte("v"), CategoryLabel)
	_, ok := s.Get(ctx, "k", CategoryLabel)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Sweep())
}

func TestGenerateKey_Normalizes(t *testing.T) {
	a := GenerateKey("search_drug_shortages", map[string]interface{}{"drug_name": "  Insulin ", "limit": 5})
	b := GenerateKey("search_drug_shortages", map[string]interface{}{"limit": 5, "drug_name": "insulin"})
	c := GenerateKey("search_drug_shortages", map[string]interface{}{"limit": 6, "drug_name": "insulin"})
	d := GenerateKey("search_drug_recalls", map[string]interface{}{"limit": 5, "drug_name": "insulin"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Regexp(t, `^search_drug_shortages:[0-9a-f]{16}$`, a)
}

func TestGenerateKey_StructAndMapAgree(t *testing.T) {
	type args struct {
		DrugName string `json:"drug_name"`
		Limit    int    `json:"limit"`
	}
	assert.Equal(t,
		GenerateKey("op", args{DrugName: "Aspirin", Limit: 3}),
		GenerateKey("op", map[string]interface{}{"limit": 3, "drug_name": "aspirin"}),
	)
}

func TestNormalizeTerm(t *testing.T) {
	assert.Equal(t, "insulin glargine", NormalizeTerm("  Insulin \t GLARGINE "))
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("RXMCP_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RXMCP_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	s := NewRedisStore(url, fmt.Sprintf("rxmcp-test-%d:", time.Now().UnixNano()), DefaultTTLs(), zerolog.Nop())
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	s.Put(ctx, "k", []byte("v"), CategoryLabel)
	got, ok := s.Get(ctx, "k", CategoryLabel)
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	s.Put(ctx, "r", []byte("v"), CategoryRecall)
	_, ok = s.Get(ctx, "r", CategoryRecall)
	assert.False(t, ok)
}
