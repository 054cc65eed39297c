// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gogama/httpq/cache"
	"github.com/gogama/httpq/metrics"
	"github.com/gogama/httpq/request"
)

// DefaultPoolSize is the number of network dispatcher workers started
// when Config.PoolSize is not set.
const DefaultPoolSize = 4

// Config assembles the collaborators of a Queue.
type Config struct {
	// Cache is the keyed store consulted and primed by the pipeline.
	// It may not be nil; use a cache implementation from the cache
	// package tree, or your own.
	Cache cache.Cache
	// Network executes HTTP round trips. It may not be nil; a
	// zero-value BasicNetwork is a valid choice.
	Network Network
	// Delivery posts results to the delivery execution context. If
	// nil, the queue owns a serial executor whose goroutine runs for
	// the remaining life of the process.
	Delivery ResponseDelivery
	// PoolSize is the number of network dispatcher workers. A
	// non-positive value means DefaultPoolSize.
	PoolSize int
	// Logger receives pipeline logging, including the per-request
	// marker dumps at debug level. If nil, logging is disabled.
	Logger *zap.Logger
	// Handlers are event handler chains to run at pipeline stages. May
	// be nil.
	Handlers *HandlerGroup
}

// A Queue is a request dispatch queue with a pool of dispatcher
// workers.
//
// Adding a request enqueues it for dispatch: it is resolved from
// either cache or network on a worker goroutine, and its parsed
// result is delivered on the configured delivery executor. A Queue is
// safe for concurrent use by multiple goroutines.
type Queue struct {
	cache    cache.Cache
	network  Network
	delivery ResponseDelivery
	poolSize int
	logger   *zap.Logger
	handlers *HandlerGroup

	// sequence generates monotonically-increasing sequence numbers for
	// requests.
	sequence atomic.Int64

	// current is the set of all requests admitted to this queue and
	// not yet finished: waiting in a dispatch queue, staged behind an
	// in-flight duplicate, or being processed by a dispatcher.
	currentMu sync.Mutex
	current   map[*request.Request]struct{}

	// waiting is the staging area for requests that already have a
	// duplicate request in flight. Presence of a cache key means a
	// request for that key is in flight; the value holds the staged
	// waiters, excluding the in-flight request itself, and is nil when
	// nothing is staged. Never lock waitingMu and currentMu together.
	waitingMu sync.Mutex
	waiting   map[string][]*request.Request

	cacheQueue   *priorityQueue
	networkQueue *priorityQueue

	startMu         sync.Mutex
	cacheDispatcher *cacheDispatcher
	dispatchers     []*networkDispatcher
}

// NewQueue creates the dispatch queue and its worker pool. Processing
// does not begin until Start is called.
func NewQueue(cfg Config) *Queue {
	if cfg.Cache == nil {
		panic("httpq: nil cache")
	}
	if cfg.Network == nil {
		panic("httpq: nil network")
	}
	delivery := cfg.Delivery
	if delivery == nil {
		exec, _ := NewSerialExecutor()
		delivery = NewExecutorDelivery(exec)
	}
	// Let the delivery fire ResponseDelivered through the queue's
	// handler chains.
	if hd, ok := delivery.(interface{ setHandlers(*HandlerGroup) }); ok {
		hd.setHandlers(cfg.Handlers)
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		cache:        cfg.Cache,
		network:      cfg.Network,
		delivery:     delivery,
		poolSize:     poolSize,
		logger:       logger,
		handlers:     cfg.Handlers,
		current:      make(map[*request.Request]struct{}),
		waiting:      make(map[string][]*request.Request),
		cacheQueue:   newPriorityQueue(),
		networkQueue: newPriorityQueue(),
	}
}

// Start launches the cache dispatcher and the network dispatcher
// pool, stopping any dispatchers from a previous Start first.
func (q *Queue) Start() {
	q.Stop()

	q.startMu.Lock()
	defer q.startMu.Unlock()

	q.cacheDispatcher = newCacheDispatcher(q.cacheQueue, q.networkQueue, q.cache, q.delivery, q.handlers, q.logger)
	go q.cacheDispatcher.run()

	q.dispatchers = make([]*networkDispatcher, q.poolSize)
	for i := range q.dispatchers {
		d := newNetworkDispatcher(q.networkQueue, q.network, q.cache, q.delivery, q.handlers, q.logger)
		q.dispatchers[i] = d
		go d.run()
	}
}

// Stop tells every dispatcher to quit and interrupts their blocking
// waits so they can return promptly. Requests still sitting in the
// dispatch queues are not guaranteed to be processed; Stop does not
// wait for in-flight work to drain.
func (q *Queue) Stop() {
	q.startMu.Lock()
	defer q.startMu.Unlock()

	if q.cacheDispatcher != nil {
		q.cacheDispatcher.quit.trip()
	}
	for _, d := range q.dispatchers {
		d.quit.trip()
	}
	q.cacheQueue.interrupt()
	q.networkQueue.interrupt()
}

// Cache returns the cache instance being used.
func (q *Queue) Cache() cache.Cache {
	return q.cache
}

// Add admits a request to the dispatch queue and returns it.
//
// A non-cacheable request goes straight onto the network queue. A
// cacheable request normally enters cache triage, unless a request
// with the same cache key is already in flight, in which case it is
// staged and will re-enter triage when the in-flight request
// finishes, the cache by then having been primed on its behalf.
func (q *Queue) Add(r *request.Request) *request.Request {
	if r.Parse == nil {
		panic("httpq: request has no Parse function")
	}

	// Tag the request as belonging to this queue and add it to the
	// set of current requests.
	r.SetQueue(q)
	q.currentMu.Lock()
	q.current[r] = struct{}{}
	q.currentMu.Unlock()

	// Process requests in the order they are added.
	r.SetSequence(q.sequence.Add(1))
	r.AddMarker("add-to-queue")
	q.handlers.run(RequestAdded, r)

	// If the request is uncacheable, skip the cache queue and go
	// straight to the network.
	if !r.ShouldCache() {
		metrics.RecordRequestAdded("network")
		q.networkQueue.Add(r)
		return r
	}
	metrics.RecordRequestAdded("cache")

	// Stage the request if there's already a request with the same
	// cache key in flight.
	q.waitingMu.Lock()
	defer q.waitingMu.Unlock()
	key := r.CacheKey()
	if waiters, inFlight := q.waiting[key]; inFlight {
		// There is already a request in flight. Queue up.
		q.waiting[key] = append(waiters, r)
		q.logger.Debug("request in flight, staging waiter", zap.String("cacheKey", key))
	} else {
		// Record a present-but-empty slot for this cache key,
		// indicating there is now a request in flight.
		q.waiting[key] = nil
		q.cacheQueue.Add(r)
	}
	return r
}

// Finish is called from request.Request.Finish on every terminal
// transition. It removes the request from the set of current requests
// and, for a cacheable request, releases any staged waiters for its
// cache key back into cache triage. It also closes and dumps the
// request's marker log. When the delivery has an Execute method (as
// ExecutorDelivery does) the dump is marshalled onto the delivery
// executor so log output order matches delivery order; otherwise it
// is written in place.
func (q *Queue) Finish(r *request.Request, marker string) {
	q.currentMu.Lock()
	delete(q.current, r)
	q.currentMu.Unlock()

	if r.ShouldCache() {
		q.waitingMu.Lock()
		key := r.CacheKey()
		waiters := q.waiting[key]
		delete(q.waiting, key)
		if len(waiters) > 0 {
			// The waiters are no longer considered in flight, but the
			// cache has been primed by the finished request, so triage
			// will normally resolve them without network traffic.
			q.logger.Debug("releasing waiters",
				zap.Int("count", len(waiters)), zap.String("cacheKey", key))
			metrics.RecordWaitersReleased(len(waiters))
			q.cacheQueue.AddAll(waiters)
		}
		q.waitingMu.Unlock()
	}

	q.handlers.run(RequestFinished, r)

	r.AddMarker(marker)
	dump := func() {
		r.Markers().Finish(r.String(), q.logger)
	}
	if ex, ok := q.delivery.(interface{ Execute(f func()) }); ok {
		ex.Execute(dump)
	} else {
		dump()
	}
}

// CancelAll cancels every current request for which the given filter
// returns true. Cancellation is observed asynchronously at the next
// dispatcher checkpoint; transport work already in progress is not
// aborted, but its result is discarded.
func (q *Queue) CancelAll(filter func(r *request.Request) bool) {
	q.currentMu.Lock()
	defer q.currentMu.Unlock()
	for r := range q.current {
		if filter(r) {
			r.Cancel()
		}
	}
}

// CancelTag cancels every current request carrying the given tag. The
// tag must be non-nil.
func (q *Queue) CancelTag(tag any) {
	if tag == nil {
		panic("httpq: cannot cancel with a nil tag")
	}
	q.CancelAll(func(r *request.Request) bool {
		return r.Tag() == tag
	})
}
