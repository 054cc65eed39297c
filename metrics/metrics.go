// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics exposes Prometheus instrumentation for the httpq
// request pipeline. Collectors register themselves with the default
// registry; serve them with promhttp in the embedding application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpq_requests_added_total",
			Help: "Requests admitted to the dispatch queue, by initial path",
		},
		[]string{"path"},
	)

	cacheTriage = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpq_cache_triage_total",
			Help: "Cache triage outcomes observed by the cache dispatcher",
		},
		[]string{"outcome"},
	)

	waitersReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "httpq_waiters_released_total",
			Help: "Coalesced duplicate requests released after their leader finished",
		},
	)

	networkAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "httpq_network_attempts_total",
			Help: "Individual HTTP request attempts, including retries",
		},
	)

	networkRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "httpq_network_retries_total",
			Help: "HTTP request attempts that were retried",
		},
	)

	deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpq_deliveries_total",
			Help: "Responses and errors posted to the delivery executor",
		},
		[]string{"kind"},
	)

	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "httpq_queue_depth",
			Help: "Requests waiting in each internal dispatch queue",
		},
		[]string{"queue"},
	)
)

// RecordRequestAdded counts an admitted request. Path is "cache" or
// "network".
func RecordRequestAdded(path string) {
	requestsAdded.WithLabelValues(path).Inc()
}

// RecordTriage counts a cache triage outcome, e.g. "hit", "miss",
// "hit-expired", "hit-refresh-needed", or "discard-canceled".
func RecordTriage(outcome string) {
	cacheTriage.WithLabelValues(outcome).Inc()
}

// RecordWaitersReleased counts coalesced waiters promoted back into
// the cache triage queue.
func RecordWaitersReleased(n int) {
	waitersReleased.Add(float64(n))
}

// RecordNetworkAttempt counts one HTTP request attempt.
func RecordNetworkAttempt() {
	networkAttempts.Inc()
}

// RecordNetworkRetry counts one retried HTTP request attempt.
func RecordNetworkRetry() {
	networkRetries.Inc()
}

// RecordDelivery counts a posted delivery. Kind is "response",
// "intermediate", or "error".
func RecordDelivery(kind string) {
	deliveries.WithLabelValues(kind).Inc()
}

// SetQueueDepth records the depth of an internal dispatch queue.
// Queue is "cache" or "network".
func SetQueueDepth(queue string, depth int) {
	queueDepth.WithLabelValues(queue).Set(float64(depth))
}
