// internal/cache/cache_test.go
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyIsOrderIndependent(t *testing.T) {
	a := Key("products", map[string]string{"category": "2", "min_price": "10"})
	b := Key("products", map[string]string{"min_price": "10", "category": "2"})
	assert.Equal(t, a, b, "equivalent filter sets must collapse to one cache line")

	assert.NotEqual(t, Key("products", nil), Key("cart_items", nil))
	assert.NotEqual(t,
		Key("products", map[string]string{"category": "2"}),
		Key("products", map[string]string{"category": "3"}))
}

func TestSetThenGetRoundTrip(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	stored := []string{"atta", "basmati rice"}
	err := c.Set(ctx, "products", map[string]string{"q": "a", "category": "1"}, stored)
	assert.NoError(t, err)

	var got []string
	// Reversed key order on the read side.
	found, err := c.Get(ctx, "products", map[string]string{"category": "1", "q": "a"}, &got)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, stored, got)
}

func TestGetAfterTTLEvicts(t *testing.T) {
	store := NewMemoryStore()
	clock := time.Unix(1700000000, 0)
	var mu sync.Mutex
	store.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	c := New(store, time.Minute)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "products", nil, "x"))
	assert.Equal(t, 1, store.Len())

	mu.Lock()
	clock = clock.Add(61 * time.Second)
	mu.Unlock()

	var got string
	found, err := c.Get(ctx, "products", nil, &got)
	assert.NoError(t, err)
	assert.False(t, found, "entry past maxAge must miss")
	assert.Equal(t, 0, store.Len(), "stale entry is removed on access")
}

func TestClearIsTableScoped(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "products", map[string]string{"category": "1"}, "p"))
	assert.NoError(t, c.Set(ctx, "products", map[string]string{"category": "2"}, "p2"))
	assert.NoError(t, c.Set(ctx, "cart_items", map[string]string{"user": "u1"}, "c"))

	assert.NoError(t, c.Clear(ctx, "products"))

	var got string
	found, _ := c.Get(ctx, "products", map[string]string{"category": "1"}, &got)
	assert.False(t, found)
	found, _ = c.Get(ctx, "cart_items", map[string]string{"user": "u1"}, &got)
	assert.True(t, found, "clearing one table leaves others alone")

	assert.NoError(t, c.Clear(ctx))
	found, _ = c.Get(ctx, "cart_items", map[string]string{"user": "u1"}, &got)
	assert.False(t, found, "clear with no table wipes everything")
}

func TestGetOrLoadCachesLoaderResult(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	loads := 0
	load := func(ctx context.Context) (any, error) {
		loads++
		return []int{1, 2, 3}, nil
	}

	var got []int
	assert.NoError(t, c.GetOrLoad(ctx, "products", nil, &got, load))
	assert.Equal(t, []int{1, 2, 3}, got)

	got = nil
	assert.NoError(t, c.GetOrLoad(ctx, "products", nil, &got, load))
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 1, loads, "second call is served from cache")
}

func TestGetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	var loads int32
	gate := make(chan struct{})
	load := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&loads, 1)
		<-gate
		return "result", nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var got string
			if err := c.GetOrLoad(ctx, "products", map[string]string{"id": "7"}, &got, load); err == nil {
				results[i] = got
			}
		}(i)
	}

	// Give the goroutines time to pile onto the singleflight key.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads), "concurrent identical misses collapse into one load")
	for _, r := range results {
		assert.Equal(t, "result", r)
	}
}

func TestGetOrLoadPropagatesLoaderError(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute)

	boom := errors.New("db down")
	var got string
	err := c.GetOrLoad(context.Background(), "products", nil, &got, func(ctx context.Context) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestStats(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	var got string
	_, _ = c.Get(ctx, "products", nil, &got) // miss
	_ = c.Set(ctx, "products", nil, "x")
	_, _ = c.Get(ctx, "products", nil, &got) // hit

	s := c.Stats()
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.Equal(t, uint64(1), s.Sets)
	assert.InDelta(t, 50.0, s.HitRate, 0.01)
}
