// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"
)

// A Policy controls if and how failed request attempts are retried.
//
// A Policy instance is stateful and must be used by at most one
// request. The network layer reads CurrentTimeout before each attempt
// and calls Retry after each eligible failure; Retry either absorbs
// the failure (returning nil, meaning another attempt may be made) or
// returns the terminal error to surface when attempts are exhausted.
type Policy interface {
	// CurrentTimeout returns the timeout to apply to the next request
	// attempt.
	CurrentTimeout() time.Duration
	// CurrentRetryCount returns the number of retries consumed so far.
	CurrentRetryCount() int
	// Retry records a failed attempt. It returns nil if another
	// attempt may be made, or lastErr if attempts are exhausted.
	Retry(lastErr error) error
}

const (
	// DefaultTimeout is the starting attempt timeout of the default
	// policy.
	DefaultTimeout = 2500 * time.Millisecond
	// DefaultMaxRetries is the number of retries the default policy
	// allows.
	DefaultMaxRetries = 1
	// DefaultBackoffMultiplier is the backoff multiplier of the
	// default policy. Each failed attempt grows the timeout by
	// timeout += timeout * multiplier.
	DefaultBackoffMultiplier = 1.0
)

// Backoff is a retry Policy with an exponential attempt timeout.
type Backoff struct {
	timeout    time.Duration
	retryCount int
	maxRetries int
	multiplier float64
}

// NewDefault constructs a Backoff policy with the default starting
// timeout, retry budget, and backoff multiplier.
func NewDefault() *Backoff {
	return New(DefaultTimeout, DefaultMaxRetries, DefaultBackoffMultiplier)
}

// New constructs a Backoff policy.
//
// Parameter timeout is the timeout of the first attempt; maxRetries is
// the number of retries allowed after the first attempt; and
// multiplier scales the timeout growth after each failure. Timeout
// must be positive, and maxRetries and multiplier must be
// non-negative.
func New(timeout time.Duration, maxRetries int, multiplier float64) *Backoff {
	if timeout < 1 {
		panic("httpq/retry: timeout must be positive")
	}
	if maxRetries < 0 {
		panic("httpq/retry: maxRetries must be non-negative")
	}
	if multiplier < 0 {
		panic("httpq/retry: multiplier must be non-negative")
	}
	return &Backoff{
		timeout:    timeout,
		maxRetries: maxRetries,
		multiplier: multiplier,
	}
}

// None constructs a policy that never retries. It is useful if you
// want the pipeline's other features but a single failed attempt
// should surface immediately.
func None() *Backoff {
	return New(DefaultTimeout, 0, DefaultBackoffMultiplier)
}

// CurrentTimeout returns the timeout to apply to the next request
// attempt.
func (p *Backoff) CurrentTimeout() time.Duration {
	return p.timeout
}

// CurrentRetryCount returns the number of retries consumed so far.
func (p *Backoff) CurrentRetryCount() int {
	return p.retryCount
}

// Retry records a failed attempt, increments the retry count, and
// scales the attempt timeout by the backoff multiplier. It returns nil
// while the retry budget lasts and lastErr once it is exhausted.
func (p *Backoff) Retry(lastErr error) error {
	p.retryCount++
	p.timeout += time.Duration(float64(p.timeout) * p.multiplier)
	if !p.hasAttemptRemaining() {
		return lastErr
	}
	return nil
}

func (p *Backoff) hasAttemptRemaining() bool {
	return p.retryCount <= p.maxRetries
}
