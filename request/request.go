// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gogama/httpq/cache"
	"github.com/gogama/httpq/retry"
)

// A Priority ranks requests within the dispatch queues. Higher
// priorities are dispatched first; requests of equal priority are
// dispatched in admission order.
type Priority int

const (
	// Low priority, for prefetches and other deferrable work.
	Low Priority = iota
	// Normal priority, the default.
	Normal
	// High priority, for requests the user is waiting on.
	High
	// Immediate priority, dispatched ahead of everything else.
	Immediate
)

var priorityNames = []string{"LOW", "NORMAL", "HIGH", "IMMEDIATE"}

// String returns the name of the priority.
func (p Priority) String() string {
	if p < Low || p > Immediate {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityNames[int(p)]
}

// A Completer is notified when a request reaches end of life. It is
// implemented by the dispatch queue; the indirection exists only to
// keep this package free of a dependency on the queue.
type Completer interface {
	Finish(r *Request, marker string)
}

// A Request describes one logical HTTP operation: what to send, how
// to parse what comes back, and where to deliver the result.
//
// The exported fields, and the setters below, must be configured
// before the request is added to a queue and not touched afterward.
// Lifecycle state (sequence number, cancellation, delivery flag,
// attached cache entry) is managed by the queue and its dispatchers
// through the remaining methods, which are safe for concurrent use.
type Request struct {
	// Method is the HTTP method: GET, POST, PUT, DELETE, HEAD,
	// OPTIONS, TRACE, or PATCH.
	Method string

	// URL is the URL to access.
	URL string

	// Header contains additional request header fields to send.
	Header http.Header

	// Body is the pre-buffered request body to be sent. A nil or empty
	// body means no request body, as on a typical GET.
	Body []byte

	// Parse converts a raw network response into a parsed Response. It
	// runs on a dispatcher goroutine and must be deterministic and
	// must not block on external resources: the same function parses
	// both live responses and cached bytes. Returning nil suppresses
	// delivery entirely.
	Parse func(resp *NetworkResponse) *Response

	// ParseError, if non-nil, refines a typed network error before it
	// is delivered, for example to decode a structured error body. It
	// runs on a dispatcher goroutine.
	ParseError func(err error) error

	// OnResponse receives the parsed result on the delivery executor.
	// It may run twice for one request: once with an intermediate
	// result served from stale cache, then once with the final result.
	OnResponse func(result any)

	// OnError receives the terminal error on the delivery executor.
	OnError func(err error)

	tag         any
	priority    Priority
	policy      retry.Policy
	shouldCache bool
	cacheKey    string

	canceled atomic.Bool

	mu        sync.Mutex
	sequence  int64
	hasSeq    bool
	delivered bool
	entry     *cache.Entry
	queue     Completer

	markers *MarkerLog
}

// New constructs a request with the given method, URL, and error
// listener. The request defaults to Normal priority, the default
// retry policy, and caching enabled.
//
// The caller must set Parse (directly, or by using one of the typed
// constructors NewBytes, NewString, or NewJSON) before adding the
// request to a queue.
func New(method, url string, onError func(err error)) *Request {
	return &Request{
		Method:      method,
		URL:         url,
		Header:      make(http.Header),
		OnError:     onError,
		priority:    Normal,
		policy:      retry.NewDefault(),
		shouldCache: true,
		markers:     NewMarkerLog(),
	}
}

// SetTag attaches an opaque identity token to this request. All
// requests carrying an equal tag can be cancelled in bulk through the
// queue. Returns the request to allow chaining.
func (r *Request) SetTag(tag any) *Request {
	r.tag = tag
	return r
}

// Tag returns the request's tag.
func (r *Request) Tag() any {
	return r.tag
}

// SetPriority sets the request's dispatch priority. Returns the
// request to allow chaining.
func (r *Request) SetPriority(p Priority) *Request {
	r.priority = p
	return r
}

// Priority returns the request's dispatch priority.
func (r *Request) Priority() Priority {
	return r.priority
}

// SetRetryPolicy replaces the request's retry policy. The policy
// instance must not be shared with another request. Returns the
// request to allow chaining.
func (r *Request) SetRetryPolicy(p retry.Policy) *Request {
	r.policy = p
	return r
}

// RetryPolicy returns the request's retry policy.
func (r *Request) RetryPolicy() retry.Policy {
	return r.policy
}

// SetShouldCache controls whether responses to this request are
// cached and whether the request takes the cache-first dispatch path
// at all. Returns the request to allow chaining.
func (r *Request) SetShouldCache(shouldCache bool) *Request {
	r.shouldCache = shouldCache
	return r
}

// ShouldCache reports whether this request participates in caching.
func (r *Request) ShouldCache() bool {
	return r.shouldCache
}

// SetCacheKey overrides the cache key for this request. Returns the
// request to allow chaining.
func (r *Request) SetCacheKey(key string) *Request {
	r.cacheKey = key
	return r
}

// CacheKey returns the cache key for this request. By default, this
// is the URL.
func (r *Request) CacheKey() string {
	if r.cacheKey != "" {
		return r.cacheKey
	}
	return r.URL
}

// SetSequence assigns the request's admission sequence number. Used
// by the dispatch queue.
func (r *Request) SetSequence(sequence int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequence = sequence
	r.hasSeq = true
}

// Sequence returns the admission sequence number. It panics if called
// before the queue has assigned one.
func (r *Request) Sequence() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasSeq {
		panic("httpq/request: Sequence called before SetSequence")
	}
	return r.sequence
}

// SetQueue associates this request with the queue that will be
// notified when the request finishes. Used by the dispatch queue.
func (r *Request) SetQueue(q Completer) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = q
	return r
}

// Cancel marks this request as cancelled. No listener callback will
// be delivered after the cancellation is observed. Cancel is
// idempotent, and a cancelled request can never be un-cancelled.
func (r *Request) Cancel() {
	r.canceled.Store(true)
}

// IsCanceled reports whether this request has been cancelled.
func (r *Request) IsCanceled() bool {
	return r.canceled.Load()
}

// SetCacheEntry attaches a cache entry retrieved for this request, so
// the transport can revalidate it conditionally. Used by the cache
// dispatcher.
func (r *Request) SetCacheEntry(entry *cache.Entry) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry = entry
	return r
}

// CacheEntry returns the attached cache entry, or nil if there isn't
// one.
func (r *Request) CacheEntry() *cache.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry
}

// MarkDelivered marks that a response has been delivered, or
// dispatched for delivery, to this request. Both the final response
// and an intermediate response served from stale cache count: either
// way the caller has seen a result, which is what a later 304 refresh
// needs to know to suppress a second, identical delivery.
func (r *Request) MarkDelivered() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = true
}

// HasHadResponseDelivered reports whether a response, final or
// intermediate, has been dispatched for delivery to this request.
func (r *Request) HasHadResponseDelivered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delivered
}

// AddMarker adds an event to this request's marker log.
func (r *Request) AddMarker(name string) {
	r.markers.Add(name)
}

// Markers returns this request's marker log.
func (r *Request) Markers() *MarkerLog {
	return r.markers
}

// Finish notifies the associated queue that this request has reached
// end of life, successfully or otherwise. The marker names the
// terminal transition and closes the request's marker log.
func (r *Request) Finish(marker string) {
	r.mu.Lock()
	q := r.queue
	r.queue = nil
	r.mu.Unlock()
	if q != nil {
		q.Finish(r, marker)
	}
}

// DeliverResponse invokes the response listener, if any. It must be
// called on the delivery executor.
func (r *Request) DeliverResponse(result any) {
	if r.OnResponse != nil {
		r.OnResponse(result)
	}
}

// DeliverError invokes the error listener, if any. It must be called
// on the delivery executor.
func (r *Request) DeliverError(err error) {
	if r.OnError != nil {
		r.OnError(err)
	}
}

// Before reports whether this request sorts ahead of other in a
// dispatch queue: higher priority first, and first-in first-out
// within one priority.
func (r *Request) Before(other *Request) bool {
	if r.priority != other.priority {
		return r.priority > other.priority
	}
	return r.Sequence() < other.Sequence()
}

// String describes the request for log output.
func (r *Request) String() string {
	mark := " "
	if r.IsCanceled() {
		mark = "X"
	}
	return fmt.Sprintf("[%s] %s %s %s", mark, r.Method, r.URL, r.priority)
}
