// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rediscache

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/httpq/cache"
)

// fakeClient is an in-memory stand-in for the Redis client surface
// the cache uses.
type fakeClient struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	pings  int
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: make(map[string]string)}
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeClient) FlushDB(_ context.Context) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = make(map[string]string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Ping(_ context.Context) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return redis.NewStatusResult("PONG", nil)
}

func freshEntry(body string) *cache.Entry {
	now := time.Now()
	return &cache.Entry{
		Data:       []byte(body),
		ETag:       `"v1"`,
		ServerDate: now,
		SoftExpiry: now.Add(time.Minute),
		Expiry:     now.Add(time.Hour),
		Header:     http.Header{"Content-Type": []string{"text/plain"}},
	}
}

func TestInitializePings(t *testing.T) {
	f := newFakeClient()
	c := New(f, "httpq:", nil)
	c.Initialize()
	assert.Equal(t, 1, f.pings)
}

func TestRoundTrip(t *testing.T) {
	f := newFakeClient()
	c := New(f, "httpq:", nil)

	assert.Nil(t, c.Get("/a"), "empty cache")

	e := freshEntry("X")
	c.Put("/a", e)
	got := c.Get("/a")
	require.NotNil(t, got)
	assert.Equal(t, e.Data, got.Data)
	assert.Equal(t, e.ETag, got.ETag)
	assert.False(t, got.IsExpired())

	_, stored := f.data["httpq:/a"]
	assert.True(t, stored, "keys carry the configured prefix")
}

func TestInvalidate(t *testing.T) {
	t.Run("soft", func(t *testing.T) {
		c := New(newFakeClient(), "", nil)
		c.Put("/a", freshEntry("X"))
		c.Invalidate("/a", false)
		got := c.Get("/a")
		require.NotNil(t, got)
		assert.True(t, got.RefreshNeeded())
		assert.False(t, got.IsExpired())
	})
	t.Run("full", func(t *testing.T) {
		c := New(newFakeClient(), "", nil)
		c.Put("/a", freshEntry("X"))
		c.Invalidate("/a", true)
		got := c.Get("/a")
		require.NotNil(t, got)
		assert.True(t, got.IsExpired())
	})
}

func TestRemoveAndClear(t *testing.T) {
	f := newFakeClient()
	c := New(f, "", nil)
	c.Put("/a", freshEntry("X"))
	c.Put("/b", freshEntry("Y"))

	c.Remove("/a")
	assert.Nil(t, c.Get("/a"))
	require.NotNil(t, c.Get("/b"))

	c.Clear()
	assert.Nil(t, c.Get("/b"))
}

func TestErrorsDegradeToMiss(t *testing.T) {
	t.Run("get error", func(t *testing.T) {
		f := newFakeClient()
		c := New(f, "", nil)
		c.Put("/a", freshEntry("X"))
		f.getErr = context.DeadlineExceeded
		assert.Nil(t, c.Get("/a"))
	})
	t.Run("corrupt entry", func(t *testing.T) {
		f := newFakeClient()
		c := New(f, "", nil)
		f.data["/a"] = "not json"
		assert.Nil(t, c.Get("/a"))
		_, ok := f.data["/a"]
		assert.False(t, ok, "corrupt entry deleted on read")
	})
}
