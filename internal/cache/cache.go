// Package cache provides the layered response cache used by the price
// and transaction providers: a process-local TTL map in front of an
// optional Redis tier.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache is the read-through interface providers depend on.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process TTL cache. Expired entries are dropped lazily
// on read and swept whenever the map grows past sweepThreshold.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

const sweepThreshold = 4096

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Get returns the cached value if present and unexpired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with the given TTL.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) >= sweepThreshold {
		now := time.Now()
		for k, e := range m.entries {
			if now.After(e.expiresAt) {
				delete(m.entries, k)
			}
		}
	}
	m.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Redis is the shared cache tier. Failures degrade to cache misses so an
// unreachable Redis never fails an analysis.
type Redis struct {
	client *redis.Client
}

// NewRedis connects a cache to the given Redis address.
func NewRedis(addr string, db int) *Redis {
	return &Redis{client: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

// Get returns the cached value, treating any Redis error as a miss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("redis get failed")
		}
		return nil, false
	}
	return val, true
}

// Set stores a value, logging and swallowing Redis errors.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("redis set failed")
	}
}

// Ping verifies connectivity, used by health checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error { return r.client.Close() }

// Layered reads through memory first, then the shared tier, promoting
// shared hits into memory.
type Layered struct {
	local  *Memory
	shared Cache
}

// NewLayered stacks the local cache in front of shared. shared may be
// nil, in which case the layered cache is purely local.
func NewLayered(local *Memory, shared Cache) *Layered {
	return &Layered{local: local, shared: shared}
}

// Get checks the local tier, then the shared tier.
func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, ok := l.local.Get(ctx, key); ok {
		return val, true
	}
	if l.shared == nil {
		return nil, false
	}
	val, ok := l.shared.Get(ctx, key)
	if ok {
		l.local.Set(ctx, key, val, time.Minute)
	}
	return val, ok
}

// Set writes through to both tiers.
func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	l.local.Set(ctx, key, value, ttl)
	if l.shared != nil {
		l.shared.Set(ctx, key, value, ttl)
	}
}
