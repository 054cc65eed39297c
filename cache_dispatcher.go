// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gogama/httpq/cache"
	"github.com/gogama/httpq/fault"
	"github.com/gogama/httpq/metrics"
	"github.com/gogama/httpq/request"
)

// A cacheDispatcher is the single worker performing cache triage on
// the cache queue.
//
// Requests taken from the cache queue are resolved from cache. Any
// deliverable response is posted back to the caller via the
// ResponseDelivery. Cache misses, and hits that require refresh, are
// enqueued on the network queue for processing by a networkDispatcher.
type cacheDispatcher struct {
	cacheQueue   *priorityQueue
	networkQueue *priorityQueue
	cache        cache.Cache
	delivery     ResponseDelivery
	handlers     *HandlerGroup
	logger       *zap.Logger
	quit         *quitSignal
}

func newCacheDispatcher(cacheQueue, networkQueue *priorityQueue, c cache.Cache, delivery ResponseDelivery, handlers *HandlerGroup, logger *zap.Logger) *cacheDispatcher {
	return &cacheDispatcher{
		cacheQueue:   cacheQueue,
		networkQueue: networkQueue,
		cache:        c,
		delivery:     delivery,
		handlers:     handlers,
		logger:       logger,
		quit:         &quitSignal{},
	}
}

func (d *cacheDispatcher) run() {
	d.logger.Debug("cache dispatcher starting")

	// Blocking call; the cache may scan disk or dial a server.
	d.cache.Initialize()

	for {
		r, ok := d.cacheQueue.Take(d.quit)
		metrics.SetQueueDepth("cache", d.cacheQueue.Len())
		if !ok {
			d.logger.Debug("cache dispatcher quitting")
			return
		}
		d.process(r)
	}
}

func (d *cacheDispatcher) process(r *request.Request) {
	// A single misbehaving request must not kill the worker: a panic
	// out of Parse or an event handler is wrapped and posted as a
	// generic error.
	defer func() {
		if v := recover(); v != nil {
			d.logger.Error("unhandled panic triaging request",
				zap.String("request", r.String()), zap.Any("panic", v))
			d.delivery.PostError(r, fault.New(fault.Network, fmt.Errorf("httpq: panic triaging request: %v", v)))
		}
	}()

	r.AddMarker("cache-queue-take")

	// Canceled while queued; don't bother triaging.
	if r.IsCanceled() {
		metrics.RecordTriage("discard-canceled")
		r.AddMarker("cache-discard-canceled")
		r.Finish("cache-discard-canceled")
		return
	}

	entry := d.cache.Get(r.CacheKey())
	if entry == nil {
		// Cache miss; send off to the network dispatcher.
		metrics.RecordTriage("miss")
		r.AddMarker("cache-miss")
		d.handlers.run(CacheMiss, r)
		d.networkQueue.Add(r)
		return
	}

	// If it is completely expired, just send it to the network,
	// keeping the entry so its validators can be sent.
	if entry.IsExpired() {
		metrics.RecordTriage("hit-expired")
		r.AddMarker("cache-hit-expired")
		d.handlers.run(CacheMiss, r)
		r.SetCacheEntry(entry)
		d.networkQueue.Add(r)
		return
	}

	// We have a cache hit; parse its data for delivery back to the
	// request.
	r.AddMarker("cache-hit")
	d.handlers.run(CacheHit, r)
	resp := r.Parse(request.NewNetworkResponse(entry.Data, entry.Header))
	r.AddMarker("cache-hit-parsed")
	if resp == nil {
		r.Finish("cache-parse-suppressed")
		return
	}
	if !resp.IsSuccess() {
		resp.Err = fault.Wrap(resp.Err)
	}

	if !entry.RefreshNeeded() {
		// Completely unexpired cache hit. Just deliver the response.
		metrics.RecordTriage("hit")
		d.delivery.PostResponse(r, resp)
		return
	}

	// Soft-expired cache hit. We can deliver the cached response, but
	// we also need to send the request to the network for refreshing.
	// The requeue runs on the delivery context after the intermediate
	// response is delivered, so the caller sees the cached value
	// before any refresh result.
	metrics.RecordTriage("hit-refresh-needed")
	r.AddMarker("cache-hit-refresh-needed")
	r.SetCacheEntry(entry)
	resp.Intermediate = true
	d.delivery.PostResponseAndThen(r, resp, func() {
		d.networkQueue.Add(r)
	})
}
