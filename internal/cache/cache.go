// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL bounds how long a cached read stays valid.
const DefaultTTL = 60 * time.Second

// Store is the cache backend. The in-memory TTL store is the default; a
// Redis-backed store (see redis.go) can be swapped in via config.
type Store interface {
	// Get unmarshals the cached value for key into dest. The boolean reports
	// whether a live entry was found; stale entries are evicted and miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// DeletePrefix removes every entry whose key starts with prefix. An empty
	// prefix removes everything.
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Key builds the cache key for a table plus filter params. Params are sorted
// by name so equivalent filter sets collapse to one cache line regardless of
// the order the caller assembled them in.
func Key(table string, params map[string]string) string {
	if len(params) == 0 {
		return table + "?"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(table)
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// StatsSnapshot is a point-in-time view of cache counters.
type StatsSnapshot struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Sets    uint64  `json:"sets"`
	Clears  uint64  `json:"clears"`
	HitRate float64 `json:"hit_rate"`
}

// QueryCache caches read query results keyed by (table, normalized params).
// There is no size bound beyond TTL eviction: many distinct param combinations
// inside one TTL window grow the cache without limit. Known limitation,
// inherited deliberately.
type QueryCache struct {
	store Store
	ttl   time.Duration
	sf    singleflight.Group

	hits   uint64
	misses uint64
	sets   uint64
	clears uint64
}

// New creates a QueryCache over store. A ttl of 0 uses DefaultTTL.
func New(store Store, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &QueryCache{store: store, ttl: ttl}
}

// Get looks up a cached result for (table, params) into dest.
func (c *QueryCache) Get(ctx context.Context, table string, params map[string]string, dest any) (bool, error) {
	found, err := c.store.Get(ctx, Key(table, params), dest)
	if err != nil {
		return false, err
	}
	if found {
		atomic.AddUint64(&c.hits, 1)
	} else {
		atomic.AddUint64(&c.misses, 1)
	}
	return found, nil
}

// Set stores a result for (table, params) with the cache's TTL.
func (c *QueryCache) Set(ctx context.Context, table string, params map[string]string, value any) error {
	if err := c.store.Set(ctx, Key(table, params), value, c.ttl); err != nil {
		return err
	}
	atomic.AddUint64(&c.sets, 1)
	return nil
}

// Clear removes all entries for the named tables, or everything when none are
// given. Write paths call this so readers never see results older than one TTL
// after a mutation.
func (c *QueryCache) Clear(ctx context.Context, tables ...string) error {
	atomic.AddUint64(&c.clears, 1)
	if len(tables) == 0 {
		return c.store.DeletePrefix(ctx, "")
	}
	for _, table := range tables {
		if err := c.store.DeletePrefix(ctx, table+"?"); err != nil {
			return err
		}
	}
	return nil
}

// GetOrLoad returns the cached result for (table, params), or runs load on a
// miss and caches what it returns. Concurrent misses for the same key collapse
// into a single load call via singleflight.
func (c *QueryCache) GetOrLoad(ctx context.Context, table string, params map[string]string, dest any, load func(ctx context.Context) (any, error)) error {
	found, err := c.Get(ctx, table, params, dest)
	if err == nil && found {
		return nil
	}

	key := Key(table, params)
	val, err, _ := c.sf.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		// Best effort: a failed Set still serves the loaded value.
		_ = c.Set(ctx, table, params, v)
		return v, nil
	})
	if err != nil {
		return err
	}

	// Round-trip through JSON so dest gets the same shape on the load path as
	// on the cached path.
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("cache encode error: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache decode error: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the cache counters.
func (c *QueryCache) Stats() StatsSnapshot {
	hits := atomic.LoadUint64(&c.hits)
	misses := atomic.LoadUint64(&c.misses)
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total) * 100
	}
	return StatsSnapshot{
		Hits:    hits,
		Misses:  misses,
		Sets:    atomic.LoadUint64(&c.sets),
		Clears:  atomic.LoadUint64(&c.clears),
		HitRate: rate,
	}
}

// Close releases the underlying store.
func (c *QueryCache) Close() error {
	return c.store.Close()
}

// --- In-memory TTL store ---

type memoryEntry struct {
	data     []byte
	storedAt time.Time
	ttl      time.Duration
}

// MemoryStore is a process-local TTL map. Entries are stored as JSON so the
// Get contract matches the Redis store exactly.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && m.now().Sub(entry.storedAt) > entry.ttl {
		// Stale entries are removed on access, not by a sweeper.
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, fmt.Errorf("cache decode error: %w", err)
	}
	return true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode error: %w", err)
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{data: data, storedAt: m.now(), ttl: ttl}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prefix == "" {
		m.entries = make(map[string]memoryEntry)
		return nil
	}
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Len reports the number of live-or-stale entries held. Used by diagnostics.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
