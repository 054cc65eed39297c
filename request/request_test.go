// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/httpq/cache"
	"github.com/gogama/httpq/retry"
)

type fakeCompleter struct {
	finished []string
}

func (f *fakeCompleter) Finish(_ *Request, marker string) {
	f.finished = append(f.finished, marker)
}

func TestNewDefaults(t *testing.T) {
	r := New("GET", "http://example.com/a", nil)
	assert.Equal(t, "GET", r.Method)
	assert.Equal(t, Normal, r.Priority())
	assert.True(t, r.ShouldCache())
	assert.NotNil(t, r.Header)
	assert.NotNil(t, r.RetryPolicy())
	assert.Equal(t, retry.DefaultTimeout, r.RetryPolicy().CurrentTimeout())
	assert.False(t, r.IsCanceled())
	assert.False(t, r.HasHadResponseDelivered())
	assert.Nil(t, r.CacheEntry())
}

func TestCacheKey(t *testing.T) {
	r := New("GET", "http://example.com/a", nil)
	assert.Equal(t, "http://example.com/a", r.CacheKey(), "defaults to the URL")
	r.SetCacheKey("custom")
	assert.Equal(t, "custom", r.CacheKey())
}

func TestSequence(t *testing.T) {
	r := New("GET", "http://example.com/a", nil)
	assert.Panics(t, func() {
		r.Sequence()
	}, "sequence read before assignment")
	r.SetSequence(7)
	assert.Equal(t, int64(7), r.Sequence())
}

func TestCancelIdempotent(t *testing.T) {
	r := New("GET", "http://example.com/a", nil)
	require.False(t, r.IsCanceled())
	for i := 0; i < 3; i++ {
		r.Cancel()
		assert.True(t, r.IsCanceled())
	}
}

func TestBefore(t *testing.T) {
	mk := func(p Priority, seq int64) *Request {
		r := New("GET", "http://example.com/a", nil).SetPriority(p)
		r.SetSequence(seq)
		return r
	}
	t.Run("priority dominates", func(t *testing.T) {
		hi := mk(Immediate, 10)
		lo := mk(Normal, 1)
		assert.True(t, hi.Before(lo))
		assert.False(t, lo.Before(hi))
	})
	t.Run("fifo within priority", func(t *testing.T) {
		first := mk(Normal, 1)
		second := mk(Normal, 2)
		assert.True(t, first.Before(second))
		assert.False(t, second.Before(first))
	})
	t.Run("full ordering", func(t *testing.T) {
		order := []Priority{Low, Normal, High, Immediate}
		for i := 1; i < len(order); i++ {
			hi := mk(order[i], int64(100+i))
			lo := mk(order[i-1], int64(i))
			assert.True(t, hi.Before(lo), "%s before %s", order[i], order[i-1])
		}
	})
}

func TestFinish(t *testing.T) {
	t.Run("notifies completer once", func(t *testing.T) {
		c := &fakeCompleter{}
		r := New("GET", "http://example.com/a", nil)
		r.SetQueue(c)
		r.Finish("done")
		r.Finish("done")
		assert.Equal(t, []string{"done"}, c.finished)
	})
	t.Run("no completer", func(t *testing.T) {
		r := New("GET", "http://example.com/a", nil)
		assert.NotPanics(t, func() {
			r.Finish("done")
		})
	})
}

func TestCacheEntry(t *testing.T) {
	r := New("GET", "http://example.com/a", nil)
	e := &cache.Entry{Data: []byte("X"), Expiry: time.Now().Add(time.Hour)}
	r.SetCacheEntry(e)
	assert.Same(t, e, r.CacheEntry())
}

func TestMarkDelivered(t *testing.T) {
	r := New("GET", "http://example.com/a", nil)
	r.MarkDelivered()
	assert.True(t, r.HasHadResponseDelivered())
}

func TestDeliverListeners(t *testing.T) {
	t.Run("response", func(t *testing.T) {
		var got any
		r := New("GET", "http://example.com/a", nil)
		r.OnResponse = func(result any) { got = result }
		r.DeliverResponse("hello")
		assert.Equal(t, "hello", got)
	})
	t.Run("nil listeners tolerated", func(t *testing.T) {
		r := New("GET", "http://example.com/a", nil)
		assert.NotPanics(t, func() {
			r.DeliverResponse("hello")
			r.DeliverError(assert.AnError)
		})
	})
}

func TestString(t *testing.T) {
	r := New("GET", "http://example.com/a", nil).SetPriority(High)
	assert.Equal(t, "[ ] GET http://example.com/a HIGH", r.String())
	r.Cancel()
	assert.Equal(t, "[X] GET http://example.com/a HIGH", r.String())
}

func TestTag(t *testing.T) {
	r := New("GET", "http://example.com/a", nil)
	assert.Nil(t, r.Tag())
	r.SetTag("screen-1")
	assert.Equal(t, "screen-1", r.Tag())
}
