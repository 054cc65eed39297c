// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequestAdded(t *testing.T) {
	before := testutil.ToFloat64(requestsAdded.WithLabelValues("cache"))
	RecordRequestAdded("cache")
	assert.Equal(t, before+1, testutil.ToFloat64(requestsAdded.WithLabelValues("cache")))
}

func TestRecordTriage(t *testing.T) {
	before := testutil.ToFloat64(cacheTriage.WithLabelValues("hit"))
	RecordTriage("hit")
	RecordTriage("hit")
	assert.Equal(t, before+2, testutil.ToFloat64(cacheTriage.WithLabelValues("hit")))
}

func TestRecordWaitersReleased(t *testing.T) {
	before := testutil.ToFloat64(waitersReleased)
	RecordWaitersReleased(3)
	assert.Equal(t, before+3, testutil.ToFloat64(waitersReleased))
}

func TestRecordNetwork(t *testing.T) {
	attempts := testutil.ToFloat64(networkAttempts)
	retries := testutil.ToFloat64(networkRetries)
	RecordNetworkAttempt()
	RecordNetworkRetry()
	assert.Equal(t, attempts+1, testutil.ToFloat64(networkAttempts))
	assert.Equal(t, retries+1, testutil.ToFloat64(networkRetries))
}

func TestRecordDelivery(t *testing.T) {
	before := testutil.ToFloat64(deliveries.WithLabelValues("intermediate"))
	RecordDelivery("intermediate")
	assert.Equal(t, before+1, testutil.ToFloat64(deliveries.WithLabelValues("intermediate")))
}

func TestSetQueueDepth(t *testing.T) {
	SetQueueDepth("network", 7)
	assert.Equal(t, 7.0, testutil.ToFloat64(queueDepth.WithLabelValues("network")))
	SetQueueDepth("network", 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(queueDepth.WithLabelValues("network")))
}
