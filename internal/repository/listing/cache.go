// Package listing caches the grant listing and the tag universe in a
// key-value store and tells subscribers when an entry is invalidated.
package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/felixrdev/grant-tagging-system/internal/db"
)

// DefaultKeyPrefix namespaces cache entries in a shared store.
const DefaultKeyPrefix = "grants:cache:"

// Key names a cached listing.
type Key string

// Cached listings. Search results are never cached.
const (
	KeyGrants Key = "grants"
	KeyTags   Key = "tags"
)

// Mutation names a successful write that makes cached listings stale.
type Mutation string

// MutationSubmitBatch is a successful batch submission.
const MutationSubmitBatch Mutation = "submit_batch"

// invalidations is the complete mutation → keys map.
var invalidations = map[Mutation][]Key{
	MutationSubmitBatch: {KeyGrants, KeyTags},
}

// KeysFor returns the keys a mutation invalidates.
func KeysFor(m Mutation) []Key {
	return append([]Key(nil), invalidations[m]...)
}

// store is the consumer interface for the listing cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
}

// Metrics are optional counters; nil fields are skipped.
type Metrics struct {
	// Lookups has labels "key" and "result" ("hit"/"miss").
	Lookups *prometheus.CounterVec
	// Invalidations has labels "mutation" and "key".
	Invalidations *prometheus.CounterVec
}

// Cache stores listings as JSON under a key prefix.
type Cache struct {
	store   store
	prefix  string
	metrics Metrics
	logger  *zap.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Key)
}

// New creates a cache over s. An empty prefix means DefaultKeyPrefix.
func New(s store, prefix string, m Metrics, logger *zap.Logger) *Cache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:   s,
		prefix:  prefix,
		metrics: m,
		logger:  logger,
		subs:    make(map[int]func(Key)),
	}
}

// Get decodes the cached value for key into dst.
// It reports false when the key is absent or the entry cannot be decoded.
func (c *Cache) Get(ctx context.Context, key Key, dst any) (bool, error) {
	data, err := c.store.Get(ctx, c.storageKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.inc(key, "miss")
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", string(key)), zap.Error(err))
		c.inc(key, "miss")
		return false, nil
	}
	c.inc(key, "hit")
	return true, nil
}

// Set replaces the cached value for key.
func (c *Cache) Set(ctx context.Context, key Key, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, c.storageKey(key), data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Invalidate discards keys and notifies subscribers of each one.
func (c *Cache) Invalidate(ctx context.Context, keys ...Key) error {
	return c.invalidate(ctx, "", keys)
}

// InvalidateFor discards exactly the keys mutation m makes stale.
func (c *Cache) InvalidateFor(ctx context.Context, m Mutation) error {
	keys, ok := invalidations[m]
	if !ok {
		return fmt.Errorf("unknown mutation %q", m)
	}
	return c.invalidate(ctx, m, keys)
}

// Subscribe registers fn to be called with every invalidated key.
// fn runs on the invalidating goroutine and must not block.
func (c *Cache) Subscribe(fn func(Key)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Cache) invalidate(ctx context.Context, m Mutation, keys []Key) error {
	if len(keys) == 0 {
		return nil
	}
	storageKeys := make([]string, len(keys))
	for i, k := range keys {
		storageKeys[i] = c.storageKey(k)
	}
	if err := c.store.Del(ctx, storageKeys...); err != nil {
		return fmt.Errorf("invalidate: %w", err)
	}

	for _, k := range keys {
		if c.metrics.Invalidations != nil {
			label := string(m)
			if label == "" {
				label = "manual"
			}
			c.metrics.Invalidations.WithLabelValues(label, string(k)).Inc()
		}
		c.logger.Debug("Cache entry invalidated", zap.String("key", string(k)), zap.String("mutation", string(m)))
	}

	c.notify(keys)
	return nil
}

func (c *Cache) notify(keys []Key) {
	c.mu.Lock()
	fns := make([]func(Key), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, k := range keys {
		for _, fn := range fns {
			fn(k)
		}
	}
}

func (c *Cache) inc(key Key, result string) {
	if c.metrics.Lookups != nil {
		c.metrics.Lookups.WithLabelValues(string(key), result).Inc()
	}
}

func (c *Cache) storageKey(key Key) string {
	return c.prefix + string(key)
}
