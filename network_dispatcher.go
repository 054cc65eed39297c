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

// A networkDispatcher is one worker of the pool servicing the network
// queue.
//
// Requests taken from the queue are executed against the Network,
// parsed on the worker goroutine, committed to cache when eligible,
// and posted back to the caller via the ResponseDelivery.
type networkDispatcher struct {
	queue    *priorityQueue
	network  Network
	cache    cache.Cache
	delivery ResponseDelivery
	handlers *HandlerGroup
	logger   *zap.Logger
	quit     *quitSignal
}

func newNetworkDispatcher(queue *priorityQueue, network Network, c cache.Cache, delivery ResponseDelivery, handlers *HandlerGroup, logger *zap.Logger) *networkDispatcher {
	return &networkDispatcher{
		queue:    queue,
		network:  network,
		cache:    c,
		delivery: delivery,
		handlers: handlers,
		logger:   logger,
		quit:     &quitSignal{},
	}
}

func (d *networkDispatcher) run() {
	d.logger.Debug("network dispatcher starting")
	for {
		r, ok := d.queue.Take(d.quit)
		metrics.SetQueueDepth("network", d.queue.Len())
		if !ok {
			d.logger.Debug("network dispatcher quitting")
			return
		}
		d.process(r)
	}
}

func (d *networkDispatcher) process(r *request.Request) {
	// A single misbehaving request must not kill the worker: a panic
	// out of Parse or a listener-adjacent hook is wrapped and posted
	// as a generic error.
	defer func() {
		if v := recover(); v != nil {
			d.logger.Error("unhandled panic servicing request",
				zap.String("request", r.String()), zap.Any("panic", v))
			d.delivery.PostError(r, fault.New(fault.Network, fmt.Errorf("httpq: panic servicing request: %v", v)))
		}
	}()

	r.AddMarker("network-queue-take")

	// If the request was cancelled already, do not perform the network
	// request.
	if r.IsCanceled() {
		r.Finish("network-discard-cancelled")
		return
	}

	// Perform the network request.
	resp, err := d.network.PerformRequest(r)
	if err != nil {
		d.parseAndDeliverNetworkError(r, err)
		return
	}
	r.AddMarker("network-http-complete")
	d.handlers.run(NetworkComplete, r)

	// If the server returned 304 and we delivered a response already,
	// we're done -- don't deliver a second identical response.
	if resp.NotModified && r.HasHadResponseDelivered() {
		r.Finish("not-modified")
		return
	}

	// Parse the response here, on the worker goroutine.
	parsed := r.Parse(resp)
	r.AddMarker("network-parse-complete")
	if parsed == nil {
		r.Finish("network-parse-suppressed")
		return
	}
	if !parsed.IsSuccess() {
		d.parseAndDeliverNetworkError(r, parsed.Err)
		return
	}

	// Write to cache if applicable. The entry produced by the parse
	// step on a 304 carries the cached body with refreshed metadata,
	// so the write also serves as the revalidation update.
	if r.ShouldCache() && parsed.Entry != nil {
		d.cache.Put(r.CacheKey(), parsed.Entry)
		r.AddMarker("network-cache-written")
	}

	// Post the response back.
	r.MarkDelivered()
	d.delivery.PostResponse(r, parsed)
}

func (d *networkDispatcher) parseAndDeliverNetworkError(r *request.Request, err error) {
	if r.ParseError != nil {
		err = r.ParseError(err)
	}
	d.delivery.PostError(r, fault.Wrap(err))
}
