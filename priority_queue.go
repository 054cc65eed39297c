// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"container/heap"
	"sync"
	"sync/atomic"

	"github.com/gogama/httpq/request"
)

// A quitSignal tells a dispatcher to die. It is written once, by
// Queue.Stop, before the dispatch queues are interrupted, and read by
// the dispatcher's blocked Take.
type quitSignal struct {
	tripped atomic.Bool
}

func (s *quitSignal) trip() {
	s.tripped.Store(true)
}

func (s *quitSignal) isTripped() bool {
	return s.tripped.Load()
}

// A priorityQueue is an unbounded, thread-safe priority queue of
// requests ordered highest priority first, first-in first-out within
// one priority. Take blocks until an item is available or the taker's
// quit signal trips.
type priorityQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items requestHeap
}

func newPriorityQueue() *priorityQueue {
	q := &priorityQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Add inserts a request and wakes one blocked taker.
func (q *priorityQueue) Add(r *request.Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.items, r)
	q.cond.Signal()
}

// AddAll inserts requests in order and wakes all blocked takers.
func (q *priorityQueue) AddAll(rs []*request.Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, r := range rs {
		heap.Push(&q.items, r)
	}
	q.cond.Broadcast()
}

// Take removes and returns the frontmost request, blocking while the
// queue is empty. It returns false if quit tripped, whether tripped
// before the call or while blocked; a wakeup with the signal untripped
// is treated as spurious and the wait resumes.
func (q *priorityQueue) Take(quit *quitSignal) (*request.Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if quit.isTripped() {
			return nil, false
		}
		if q.items.Len() > 0 {
			break
		}
		q.cond.Wait()
	}
	r := heap.Pop(&q.items).(*request.Request)
	return r, true
}

// interrupt wakes all blocked takers so they can observe their quit
// signals.
func (q *priorityQueue) interrupt() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cond.Broadcast()
}

// Len returns the number of queued requests.
func (q *priorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// requestHeap implements heap.Interface over requests using the
// request ordering key.
type requestHeap []*request.Request

func (h requestHeap) Len() int            { return len(h) }
func (h requestHeap) Less(i, j int) bool  { return h[i].Before(h[j]) }
func (h requestHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *requestHeap) Push(x interface{}) { *h = append(*h, x.(*request.Request)) }

func (h *requestHeap) Pop() interface{} {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return r
}
