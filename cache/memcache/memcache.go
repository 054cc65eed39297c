// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package memcache provides an in-memory cache.Cache backed by
// jellydator/ttlcache.
package memcache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/gogama/httpq/cache"
)

// DefaultRetention is how long entries are kept when no retention is
// specified. Retention is deliberately longer than any sane response
// TTL: an entry past its hard expiry still carries the validator
// metadata used for conditional revalidation, so it must outlive its
// own freshness.
const DefaultRetention = 24 * time.Hour

// Ensure Cache implements cache.Cache.
var _ cache.Cache = (*Cache)(nil)

// Cache is an in-memory implementation of cache.Cache. Entries are
// evicted on a retention timer independent of their response expiry
// metadata.
type Cache struct {
	store     *ttlcache.Cache[string, *cache.Entry]
	retention time.Duration
}

// New constructs an in-memory cache which retains entries for the
// given duration before evicting them. A non-positive retention means
// DefaultRetention.
func New(retention time.Duration) *Cache {
	if retention <= 0 {
		retention = DefaultRetention
	}
	store := ttlcache.New[string, *cache.Entry](
		ttlcache.WithTTL[string, *cache.Entry](retention),
		ttlcache.WithDisableTouchOnHit[string, *cache.Entry](),
	)
	return &Cache{
		store:     store,
		retention: retention,
	}
}

// Initialize starts the eviction loop. It is called by the cache
// dispatcher before the first request is taken.
func (c *Cache) Initialize() {
	go c.store.Start()
}

// Get returns the entry stored under key, or nil if there is none.
func (c *Cache) Get(key string) *cache.Entry {
	item := c.store.Get(key)
	if item == nil {
		return nil
	}
	return item.Value()
}

// Put stores entry under key, replacing any previous entry.
func (c *Cache) Put(key string, entry *cache.Entry) {
	c.store.Set(key, entry, ttlcache.DefaultTTL)
}

// Invalidate expires the entry under key. If fullExpire is true the
// entry is hard-expired; otherwise only its soft expiry is cleared.
func (c *Cache) Invalidate(key string, fullExpire bool) {
	item := c.store.Get(key)
	if item == nil {
		return
	}
	entry := item.Value()
	past := time.Now().Add(-time.Nanosecond)
	entry2 := *entry
	entry2.SoftExpiry = past
	if fullExpire {
		entry2.Expiry = past
	}
	c.store.Set(key, &entry2, ttlcache.DefaultTTL)
}

// Remove deletes the entry stored under key, if any.
func (c *Cache) Remove(key string) {
	c.store.Delete(key)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.store.DeleteAll()
}

// Stop halts the eviction loop started by Initialize.
func (c *Cache) Stop() {
	c.store.Stop()
}
