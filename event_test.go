// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	events := Events()
	require.Equal(t, numEvents, len(events))
	for i, evt := range events {
		assert.Equal(t, i, int(evt), "events listed in occurrence order")
	}
}

func TestEventName(t *testing.T) {
	require.Equal(t, numEvents, len(eventNames))
	assert.Equal(t, "RequestAdded", RequestAdded.Name())
	assert.Equal(t, "CacheHit", CacheHit.String())
	assert.Equal(t, "CacheMiss", CacheMiss.Name())
	assert.Equal(t, "NetworkComplete", NetworkComplete.Name())
	assert.Equal(t, "ResponseDelivered", ResponseDelivered.Name())
	assert.Equal(t, "RequestFinished", RequestFinished.Name())
}
