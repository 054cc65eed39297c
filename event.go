// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

// An Event identifies a stage in a request's journey through the
// dispatch pipeline when installing or running a Handler. Install
// event handlers in a Queue to observe or extend the pipeline.
type Event int

const (
	// RequestAdded identifies the event that occurs when a request is
	// admitted to the queue. The request has its sequence number
	// assigned but has not yet been placed on a dispatch queue.
	RequestAdded Event = iota
	// CacheHit identifies the event that occurs when the cache
	// dispatcher finds a servable entry for a request, whether fresh
	// or soft-expired.
	CacheHit
	// CacheMiss identifies the event that occurs when the cache
	// dispatcher finds no entry, or only a hard-expired entry, for a
	// request, and hands it to the network path.
	CacheMiss
	// NetworkComplete identifies the event that occurs when a network
	// worker has completed the HTTP round trip for a request,
	// successfully or not, before parsing and delivery.
	NetworkComplete
	// ResponseDelivered identifies the event that occurs on the
	// delivery executor immediately after a request's listener has
	// been invoked, whether with an intermediate result, a final
	// result, or an error. It does not fire for a cancelled request,
	// which sees no listener callback.
	ResponseDelivered
	// RequestFinished identifies the event that occurs when a request
	// reaches end of life and leaves the queue. It fires exactly once
	// per admitted request, on every terminal transition including
	// cancellation.
	RequestFinished
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events typed as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"RequestAdded",
	"CacheHit",
	"CacheMiss",
	"NetworkComplete",
	"ResponseDelivered",
	"RequestFinished",
}

// Events returns a slice containing all events which can occur during
// a request's dispatch, in the order in which they would occur.
func Events() []Event {
	return []Event{
		RequestAdded,
		CacheHit,
		CacheMiss,
		NetworkComplete,
		ResponseDelivered,
		RequestFinished,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
