// Package cache is a small byte cache with TTL, backed by Redis when one is
// configured and by process memory otherwise.
package cache

import (
	"context"
	"sync"
	"time"

	pkgredis "github.com/smartwork/assistant/internal/pkg/redis"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New returns a Redis-backed cache when rc is non-nil, else a memory cache.
func New(rc *pkgredis.Client, prefix string) Cache {
	if rc == nil {
		return NewMemory()
	}
	return &Redis{client: rc, prefix: prefix}
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// DefaultMaxEntries bounds a Memory cache built by NewMemory.
const DefaultMaxEntries = 1024

// Memory is an in-process cache. Expired entries are dropped on read and
// swept on write; at capacity the entry closest to expiry is evicted.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), maxEntries: DefaultMaxEntries, now: time.Now}
}

// Len reports how many entries are held, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	if _, exists := m.entries[key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.sweep(now)
		if len(m.entries) >= m.maxEntries {
			m.evictOne()
		}
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) sweep(now time.Time) {
	for k, e := range m.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne drops the entry that expires first; entries without a TTL go last.
func (m *Memory) evictOne() {
	var victim string
	var soonest time.Time
	found := false
	for k, e := range m.entries {
		if !found || (!e.expiresAt.IsZero() && (soonest.IsZero() || e.expiresAt.Before(soonest))) {
			victim, soonest, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(m.entries, victim)
	}
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Redis stores entries under prefix+key.
type Redis struct {
	client *pkgredis.Client
	prefix string
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return r.client.Get(ctx, r.prefix+key)
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, ttl)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key)
}
