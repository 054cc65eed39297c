// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gogama/httpq/fault"
)

func TestDefaultDecider(t *testing.T) {
	eligible := []fault.Kind{fault.Timeout, fault.NoConnection, fault.Server, fault.Auth}
	for _, k := range eligible {
		assert.True(t, DefaultDecider.Decide(fault.New(k, nil)), "kind %s", k)
	}
	assert.False(t, DefaultDecider.Decide(fault.New(fault.Network, nil)))
	assert.False(t, DefaultDecider.Decide(fault.New(fault.Parse, nil)))
}

func TestKinds(t *testing.T) {
	d := Kinds(fault.Timeout)
	assert.True(t, d.Decide(fault.New(fault.Timeout, nil)))
	assert.False(t, d.Decide(fault.New(fault.Server, nil)))
	assert.False(t, Kinds().Decide(fault.New(fault.Timeout, nil)), "empty kind list")
}

func TestStatusCode(t *testing.T) {
	d := StatusCode(502, 503)
	assert.True(t, d.Decide(fault.WithResponse(fault.Server, 503, nil, nil)))
	assert.False(t, d.Decide(fault.WithResponse(fault.Server, 500, nil, nil)))
	assert.False(t, d.Decide(fault.New(fault.Server, nil)), "no response at all")
}

func TestDeciderComposition(t *testing.T) {
	t.Run("and", func(t *testing.T) {
		d := Kinds(fault.Server).And(StatusCode(503))
		assert.True(t, d.Decide(fault.WithResponse(fault.Server, 503, nil, nil)))
		assert.False(t, d.Decide(fault.WithResponse(fault.Server, 500, nil, nil)))
		assert.False(t, d.Decide(fault.WithResponse(fault.Network, 503, nil, nil)))
	})
	t.Run("or", func(t *testing.T) {
		d := Kinds(fault.Timeout).Or(StatusCode(429))
		assert.True(t, d.Decide(fault.New(fault.Timeout, nil)))
		assert.True(t, d.Decide(fault.WithResponse(fault.Network, 429, nil, nil)))
		assert.False(t, d.Decide(fault.New(fault.Network, nil)))
	})
	t.Run("short circuit", func(t *testing.T) {
		poison := DeciderFunc(func(_ *fault.Error) bool {
			t.Fatal("second decider should not be evaluated")
			return false
		})
		no := DeciderFunc(func(_ *fault.Error) bool { return false })
		yes := DeciderFunc(func(_ *fault.Error) bool { return true })
		assert.False(t, no.And(poison).Decide(fault.New(fault.Timeout, nil)))
		assert.True(t, yes.Or(poison).Decide(fault.New(fault.Timeout, nil)))
	})
}
