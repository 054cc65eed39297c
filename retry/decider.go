// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"github.com/gogama/httpq/fault"
)

// A Decider decides whether a failure is eligible for retry at all.
// Eligibility is orthogonal to budget: the network layer asks the
// Decider first, and only if it says yes does it spend one of the
// request policy's attempts.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
type Decider interface {
	Decide(err *fault.Error) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface,
// and also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(err *fault.Error) bool

// DefaultDecider is a general-purpose eligibility decider suitable for
// common use cases. It allows retry of timeouts, connection failures,
// server-side (5XX) failures, and auth failures (which gives a
// re-authenticating transport a second chance with fresh credentials).
var DefaultDecider = Kinds(fault.Timeout, fault.NoConnection, fault.Server, fault.Auth)

// Decide returns true if the failure is eligible for retry, and false
// otherwise.
func (f DeciderFunc) Decide(err *fault.Error) bool {
	return f(err)
}

// And composes two deciders into a new decider which returns true if
// both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(err *fault.Error) bool {
		return f(err) && g(err)
	}
}

// Or composes two deciders into a new decider which returns true if
// either of the two sub-deciders returns true, but false if they both
// return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(err *fault.Error) bool {
		return f(err) || g(err)
	}
}

// Kinds constructs a decider which allows retry when the failure kind
// is contained in the list ks.
func Kinds(ks ...fault.Kind) DeciderFunc {
	ks2 := make([]fault.Kind, len(ks))
	copy(ks2, ks)
	return func(err *fault.Error) bool {
		for _, k := range ks2 {
			if err.Kind == k {
				return true
			}
		}
		return false
	}
}

// StatusCode constructs a decider which allows retry when the failure
// carries an HTTP response whose status code is contained in the list
// ss.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(err *fault.Error) bool {
		for _, s := range ss2 {
			if err.StatusCode == s {
				return true
			}
		}
		return false
	}
}
