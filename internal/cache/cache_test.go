package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok := m.Get(ctx, "missing")
	assert.False(t, ok)

	m.Set(ctx, "k", []byte("v"), time.Minute)
	val, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.Set(ctx, "k", []byte("v"), -time.Second)
	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemorySweepDropsExpired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < sweepThreshold; i++ {
		m.Set(ctx, string(rune(i)), []byte("x"), -time.Second)
	}
	// This write crosses the threshold and sweeps the expired entries.
	m.Set(ctx, "fresh", []byte("y"), time.Minute)

	m.mu.RLock()
	size := len(m.entries)
	m.mu.RUnlock()
	assert.Equal(t, 1, size)
}

// recordingCache counts tier traffic for layering assertions.
type recordingCache struct {
	data map[string][]byte
	gets int
	sets int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{data: map[string][]byte{}}
}

func (r *recordingCache) Get(_ context.Context, key string) ([]byte, bool) {
	r.gets++
	val, ok := r.data[key]
	return val, ok
}

func (r *recordingCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	r.sets++
	r.data[key] = value
}

func TestLayeredPromotesSharedHits(t *testing.T) {
	ctx := context.Background()
	shared := newRecordingCache()
	shared.data["k"] = []byte("v")
	l := NewLayered(NewMemory(), shared)

	val, ok := l.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)
	assert.Equal(t, 1, shared.gets)

	// Second read is served locally.
	_, ok = l.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 1, shared.gets)
}

func TestLayeredWritesThrough(t *testing.T) {
	ctx := context.Background()
	shared := newRecordingCache()
	l := NewLayered(NewMemory(), shared)

	l.Set(ctx, "k", []byte("v"), time.Minute)
	assert.Equal(t, 1, shared.sets)

	val, ok := l.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)
	assert.Zero(t, shared.gets)
}

func TestLayeredWithoutSharedTier(t *testing.T) {
	ctx := context.Background()
	l := NewLayered(NewMemory(), nil)

	_, ok := l.Get(ctx, "k")
	assert.False(t, ok)

	l.Set(ctx, "k", []byte("v"), time.Minute)
	val, ok := l.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}
