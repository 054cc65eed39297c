// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"sync"

	"github.com/gogama/httpq/metrics"
	"github.com/gogama/httpq/request"
)

// An Executor runs functions on some execution context: a UI loop, an
// event loop, or any other context user callbacks must be marshalled
// onto. Executors must not run the function synchronously on the
// calling goroutine.
type Executor func(f func())

// A ResponseDelivery posts parsed responses and errors to the delivery
// execution context. None of the post operations may invoke user
// callbacks synchronously: from the dispatcher's perspective they only
// enqueue.
type ResponseDelivery interface {
	// PostResponse posts a final parsed response (or parse error) for
	// delivery, then finishes the request on the delivery context.
	PostResponse(r *request.Request, resp *request.Response)
	// PostResponseAndThen posts an intermediate parsed response for
	// delivery and runs then on the delivery context after the
	// response has been delivered.
	PostResponseAndThen(r *request.Request, resp *request.Response, then func())
	// PostError posts a terminal error for delivery, then finishes the
	// request on the delivery context.
	PostError(r *request.Request, err error)
}

// Ensure ExecutorDelivery implements ResponseDelivery.
var _ ResponseDelivery = (*ExecutorDelivery)(nil)

// An ExecutorDelivery marshals deliveries onto an Executor.
//
// Immediately before invoking a listener it re-checks cancellation, so
// a request cancelled after its response was enqueued but before the
// executor ran it still sees no callback.
type ExecutorDelivery struct {
	exec     Executor
	handlers *HandlerGroup
}

// NewExecutorDelivery constructs a delivery posting onto the given
// executor.
func NewExecutorDelivery(exec Executor) *ExecutorDelivery {
	if exec == nil {
		panic("httpq: nil executor")
	}
	return &ExecutorDelivery{exec: exec}
}

// setHandlers installs the event handler chains to fire
// ResponseDelivered from. The queue calls it with its own handler
// group when the delivery is installed.
func (d *ExecutorDelivery) setHandlers(handlers *HandlerGroup) {
	d.handlers = handlers
}

// Execute runs an arbitrary function on the delivery executor. The
// queue uses it to keep marker-log output ordered with deliveries.
func (d *ExecutorDelivery) Execute(f func()) {
	d.exec(f)
}

// PostResponse posts a final parsed response (or parse error) for
// delivery.
func (d *ExecutorDelivery) PostResponse(r *request.Request, resp *request.Response) {
	d.post(r, resp, nil)
}

// PostResponseAndThen posts an intermediate parsed response for
// delivery and runs then on the delivery context afterward.
func (d *ExecutorDelivery) PostResponseAndThen(r *request.Request, resp *request.Response, then func()) {
	d.post(r, resp, then)
}

// PostError posts a terminal error for delivery.
func (d *ExecutorDelivery) PostError(r *request.Request, err error) {
	d.post(r, request.NewErrorResponse(err), nil)
}

func (d *ExecutorDelivery) post(r *request.Request, resp *request.Response, then func()) {
	r.AddMarker("post-response")
	switch {
	case !resp.IsSuccess():
		metrics.RecordDelivery("error")
	case resp.Intermediate:
		metrics.RecordDelivery("intermediate")
	default:
		metrics.RecordDelivery("response")
	}
	d.exec(func() {
		d.deliver(r, resp, then)
	})
}

// deliver runs on the delivery executor. It mirrors the lifecycle
// rules the dispatchers rely on: a cancelled request gets no
// callback but is still finished, and only a non-intermediate
// delivery terminates the request.
func (d *ExecutorDelivery) deliver(r *request.Request, resp *request.Response, then func()) {
	if r.IsCanceled() {
		r.Finish("canceled-at-delivery")
		return
	}

	if resp.IsSuccess() {
		r.DeliverResponse(resp.Result)
	} else {
		r.DeliverError(resp.Err)
	}
	d.handlers.run(ResponseDelivered, r)

	if resp.Intermediate {
		// Record that the caller has seen a response, so a later 304
		// refresh knows it can be suppressed.
		r.MarkDelivered()
		r.AddMarker("intermediate-response")
	} else {
		r.Finish("done")
	}

	if then != nil {
		then()
	}
}

// NewSerialExecutor returns an Executor backed by a single goroutine
// which runs posted functions strictly in post order, standing in for
// a UI loop when the embedding application has none. The returned
// stop function waits for already-posted functions to drain, then
// terminates the goroutine.
func NewSerialExecutor() (exec Executor, stop func()) {
	s := &serialExecutor{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s.execute, s.stop
}

type serialExecutor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	fns     []func()
	stopped bool
	done    chan struct{}
}

func (s *serialExecutor) execute(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.fns = append(s.fns, f)
	s.cond.Signal()
}

func (s *serialExecutor) stop() {
	s.mu.Lock()
	s.stopped = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}

func (s *serialExecutor) loop() {
	for {
		s.mu.Lock()
		for len(s.fns) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if len(s.fns) == 0 {
			s.mu.Unlock()
			close(s.done)
			return
		}
		f := s.fns[0]
		s.fns = s.fns[1:]
		s.mu.Unlock()
		f()
	}
}
