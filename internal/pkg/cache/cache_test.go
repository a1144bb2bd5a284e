package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "news:ALL", []byte("payload"), time.Hour))

	got, ok, err := m.Get(ctx, "news:ALL")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", string(got))

	now = now.Add(time.Hour)
	_, ok, err = m.Get(ctx, "news:ALL")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, 0))
	buf[0] = 'x'

	got, ok, _ := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNewWithoutRedisIsMemory(t *testing.T) {
	_, ok := New(nil, "sw:").(*Memory)
	assert.True(t, ok)
}

func TestMemorySweepsExpiredEntriesAtCapacity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.maxEntries = 3
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for _, k := range []string{"news:a", "news:b", "news:c"} {
		require.NoError(t, m.Set(ctx, k, []byte(k), time.Hour))
	}
	now = now.Add(2 * time.Hour)

	require.NoError(t, m.Set(ctx, "news:d", []byte("d"), time.Hour))
	assert.Equal(t, 1, m.Len())
	_, ok, _ := m.Get(ctx, "news:d")
	assert.True(t, ok)
}

func TestMemoryEvictsSoonestExpiryWhenFull(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.maxEntries = 2
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "long", []byte("1"), 2*time.Hour))
	require.NoError(t, m.Set(ctx, "short", []byte("2"), time.Minute))
	require.NoError(t, m.Set(ctx, "new", []byte("3"), time.Hour))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "long")
	assert.True(t, ok)

	// Overwriting an existing key never evicts.
	require.NoError(t, m.Set(ctx, "long", []byte("1b"), 2*time.Hour))
	assert.Equal(t, 2, m.Len())
}
