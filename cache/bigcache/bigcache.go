// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package bigcache provides a cache.Cache which serializes entries
// into an allegro/bigcache byte store. Prefer it over memcache for
// large working sets, where bigcache's sharded, GC-friendly layout
// pays off.
package bigcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	allegro "github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"github.com/gogama/httpq/cache"
)

// DefaultMaxSizeMB is the hard cap, in megabytes, applied when no
// size is specified.
const DefaultMaxSizeMB = 64

// Retention mirrors memcache: entries outlive their hard expiry so
// validator metadata survives for conditional revalidation.
const retention = 24 * time.Hour

// Ensure Cache implements cache.Cache.
var _ cache.Cache = (*Cache)(nil)

// Cache is a cache.Cache storing JSON-serialized entries in a
// bigcache byte store.
type Cache struct {
	maxSizeMB int
	logger    *zap.Logger
	store     *allegro.BigCache
}

// New constructs a bigcache-backed cache with the given hard size cap
// in megabytes. A non-positive cap means DefaultMaxSizeMB. The logger
// may be nil.
func New(maxSizeMB int, logger *zap.Logger) *Cache {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultMaxSizeMB
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		maxSizeMB: maxSizeMB,
		logger:    logger,
	}
}

// Initialize allocates the underlying byte store. The allocation is
// the expensive part of bigcache's lifecycle, which is why it happens
// here rather than in New: the cache dispatcher calls Initialize from
// its own goroutine before taking the first request.
func (c *Cache) Initialize() {
	config := allegro.DefaultConfig(retention)
	config.HardMaxCacheSize = c.maxSizeMB
	config.Verbose = false

	store, err := allegro.New(context.Background(), config)
	if err != nil {
		// DefaultConfig with a positive eviction window cannot fail
		// validation; treat failure as a programming error.
		panic("httpq/bigcache: " + err.Error())
	}
	c.store = store
}

// Get returns the entry stored under key, or nil if there is none or
// the stored bytes cannot be decoded.
func (c *Cache) Get(key string) *cache.Entry {
	data, err := c.store.Get(key)
	if err != nil {
		if !errors.Is(err, allegro.ErrEntryNotFound) {
			c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	var entry cache.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("corrupt cache entry", zap.String("key", key), zap.Error(err))
		_ = c.store.Delete(key)
		return nil
	}
	return &entry
}

// Put stores entry under key, replacing any previous entry.
func (c *Cache) Put(key string, entry *cache.Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(key, data); err != nil {
		c.logger.Error("failed to store cache entry", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate expires the entry under key. If fullExpire is true the
// entry is hard-expired; otherwise only its soft expiry is cleared.
func (c *Cache) Invalidate(key string, fullExpire bool) {
	entry := c.Get(key)
	if entry == nil {
		return
	}
	past := time.Now().Add(-time.Nanosecond)
	entry.SoftExpiry = past
	if fullExpire {
		entry.Expiry = past
	}
	c.Put(key, entry)
}

// Remove deletes the entry stored under key, if any.
func (c *Cache) Remove(key string) {
	_ = c.store.Delete(key)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	if err := c.store.Reset(); err != nil {
		c.logger.Error("failed to clear cache", zap.Error(err))
	}
}

// Close releases the underlying byte store.
func (c *Cache) Close() error {
	return c.store.Close()
}
