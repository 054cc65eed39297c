// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"github.com/gogama/httpq/request"
)

// A HandlerGroup is a group of event handler chains which can be
// installed in a Queue.
//
// Handlers run synchronously on the goroutine that produced the event
// (the submitting goroutine for RequestAdded, the delivery executor
// for ResponseDelivered, whichever goroutine finishes the request for
// RequestFinished, and a dispatcher for the rest), so they must be
// fast and must not block.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack adds an event handler to the back of the event handler
// chain for a specific event type.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("httpq: nil handler")
	}

	if g.handlers == nil {
		g.handlers = make([][]Handler, numEvents)
	}

	g.handlers[evt] = append(g.handlers[evt], h)
}

func (g *HandlerGroup) run(evt Event, r *request.Request) {
	if g == nil {
		return
	}
	i := int(evt)
	if i < len(g.handlers) {
		for _, h := range g.handlers[i] {
			h.Handle(evt, r)
		}
	}
}

// A Handler handles the occurrence of an event during a request's
// dispatch.
type Handler interface {
	Handle(Event, *request.Request)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as event handlers. If f is a function with the
// appropriate signature, HandlerFunc(f) is a Handler that calls f.
type HandlerFunc func(Event, *request.Request)

// Handle calls f(evt, r).
func (f HandlerFunc) Handle(evt Event, r *request.Request) {
	f(evt, r)
}
