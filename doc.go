// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpq provides a prioritized, cancellable HTTP request
pipeline with transparent response caching and coalescing of duplicate
in-flight requests.

Requests submitted to a Queue are triaged by a single cache worker and
serviced by a pool of network workers; parsed results are marshalled
onto a caller-supplied delivery executor, typically a UI or event
loop, so listener callbacks never run on a worker goroutine.

Create a Queue, start it, and add requests:

	q := httpq.NewQueue(httpq.Config{
		Cache:    memcache.New(0),
		Network:  &httpq.BasicNetwork{},
		Delivery: httpq.NewExecutorDelivery(exec),
	})
	q.Start()
	defer q.Stop()

	r := request.NewString("GET", "https://www.example.com",
		func(s string) { fmt.Println(s) },
		func(err error) { fmt.Println("failed:", err) })
	q.Add(r)

A cacheable request (the default) first consults the cache. A fresh
entry is parsed and delivered without touching the network. An entry
past its soft expiry is delivered immediately as an intermediate
result while the request proceeds to the network for a refresh, so
callers see the stale value before the refreshed one. An entry past
its hard expiry, or a miss, sends the request to the network; expired
entries still contribute their validators so the server can answer
304 Not Modified.

Duplicate cacheable requests for one cache key are coalesced: while
one is in flight, later arrivals are staged, and when the leader
finishes they re-enter cache triage, where the leader's cache write
normally satisfies them without further network traffic.

Requests carry a Priority and are dispatched strictly highest
priority first, first-in first-out within one priority. A request can
be cancelled at any time, individually or in bulk via Queue.CancelAll
(by filter) and Queue.CancelTag (by tag); cancellation is observed at the
next dispatch checkpoint and immediately before listener callbacks, so
a cancelled request never reaches its listeners.

Transient failures are retried per the request's retry.Policy, and
terminal failures are delivered as typed *fault.Error values. The
cache interface and its in-memory, bigcache, and Redis implementations
live in the cache package tree.
*/
package httpq
