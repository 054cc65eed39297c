// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMarkerLogAdd(t *testing.T) {
	l := NewMarkerLog()
	l.Add("add-to-queue")
	l.Add("cache-queue-take")
	events := l.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "add-to-queue", events[0].Name)
	assert.Equal(t, "cache-queue-take", events[1].Name)
	assert.False(t, events[1].Time.Before(events[0].Time))
	assert.GreaterOrEqual(t, l.Duration(), events[1].Time.Sub(events[0].Time))
}

func TestMarkerLogFinish(t *testing.T) {
	t.Run("dumps at debug level", func(t *testing.T) {
		core, logged := observer.New(zap.DebugLevel)
		l := NewMarkerLog()
		l.Add("add-to-queue")
		l.Add("done")
		l.Finish("GET /a", zap.New(core))
		entries := logged.All()
		// One summary line plus one line per marker.
		require.Len(t, entries, 3)
		assert.Equal(t, "request finished", entries[0].Message)
		assert.Equal(t, "add-to-queue", entries[1].Message)
		assert.Equal(t, "done", entries[2].Message)
	})
	t.Run("silent above debug level", func(t *testing.T) {
		core, logged := observer.New(zap.InfoLevel)
		l := NewMarkerLog()
		l.Add("add-to-queue")
		l.Add("done")
		l.Finish("GET /a", zap.New(core))
		assert.Empty(t, logged.All())
	})
	t.Run("idempotent", func(t *testing.T) {
		core, logged := observer.New(zap.DebugLevel)
		l := NewMarkerLog()
		l.Add("done")
		logger := zap.New(core)
		l.Finish("GET /a", logger)
		n := len(logged.All())
		l.Finish("GET /a", logger)
		assert.Equal(t, n, len(logged.All()))
	})
	t.Run("add after finish ignored", func(t *testing.T) {
		l := NewMarkerLog()
		l.Add("done")
		l.Finish("GET /a", zap.NewNop())
		l.Add("late")
		assert.Len(t, l.Events(), 1)
	})
	t.Run("empty log", func(t *testing.T) {
		core, logged := observer.New(zap.DebugLevel)
		l := NewMarkerLog()
		l.Finish("GET /a", zap.New(core))
		assert.Empty(t, logged.All())
	})
}
