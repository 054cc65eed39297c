// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package rediscache provides a cache.Cache backed by a Redis (or
// Redis-compatible) server, letting a fleet of clients share one
// response cache.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/gogama/httpq/cache"
)

// DefaultTimeout bounds each round trip to the Redis server.
const DefaultTimeout = 2 * time.Second

// Retention mirrors memcache: entries outlive their hard expiry so
// validator metadata survives for conditional revalidation.
const retention = 24 * time.Hour

// A Client is the narrow slice of the go-redis client surface the
// cache needs. *redis.Client satisfies it; tests may substitute a
// fake.
type Client interface {
	// Get retrieves a value by key.
	Get(ctx context.Context, key string) *redis.StringCmd
	// Set stores a value with expiration.
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	// Del deletes one or more keys.
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	// FlushDB empties the current database.
	FlushDB(ctx context.Context) *redis.StatusCmd
	// Ping tests connectivity.
	Ping(ctx context.Context) *redis.StatusCmd
}

// Ensure Cache implements cache.Cache, and that the real go-redis
// client satisfies Client.
var (
	_ cache.Cache = (*Cache)(nil)
	_ Client      = (*redis.Client)(nil)
)

// Cache is a cache.Cache storing JSON-serialized entries in Redis.
type Cache struct {
	client  Client
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

// New constructs a Redis-backed cache on the given client. Keys are
// stored under the given prefix so several applications can share one
// database. The logger may be nil.
func New(client Client, prefix string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		client:  client,
		prefix:  prefix,
		timeout: DefaultTimeout,
		logger:  logger,
	}
}

// Initialize pings the server so connectivity problems surface at
// startup rather than on the first request. A failed ping is logged,
// not fatal: the server may come up later, and every operation
// degrades to a cache miss until it does.
func (c *Cache) Initialize() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Warn("redis cache unreachable", zap.Error(err))
	}
}

// Get returns the entry stored under key, or nil if there is none or
// the stored bytes cannot be decoded.
func (c *Cache) Get(key string) *cache.Entry {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	var entry cache.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("corrupt cache entry", zap.String("key", key), zap.Error(err))
		c.Remove(key)
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

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.Set(ctx, c.prefix+key, data, retention).Err(); err != nil {
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
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.logger.Warn("cache remove failed", zap.String("key", key), zap.Error(err))
	}
}

// Clear empties the cache. Note that FlushDB clears the whole
// database, not just this cache's prefix; give the cache a dedicated
// database number if that matters.
func (c *Cache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		c.logger.Error("failed to clear cache", zap.Error(err))
	}
}
