// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// A Kind is the failure category of an error surfaced by the request
// pipeline.
//
// The pipeline guarantees that every error posted to a request's error
// listener is an *Error whose Kind is one of the constants below, so
// callers can switch on Kind to decide how to react (re-authenticate
// on Auth, back off on Server, give up on Parse, and so on).
type Kind int

const (
	// Network indicates a generic transport failure which does not fit
	// a more specific category. It is also the Kind used to wrap
	// unexpected internal errors so that a single misbehaving request
	// cannot kill a dispatcher.
	Network Kind = iota
	// Timeout indicates a client-side timeout. The server may be going
	// through a temporary period of slowness, and a future attempt,
	// possibly with a longer timeout, has some prospect of success.
	//
	// Function Categorize returns Timeout if the error or any of its
	// wrapped causes has a Timeout() function that reports true.
	Timeout
	// NoConnection indicates that no connection to the server could be
	// established at all: the host could not be resolved, the
	// connection was refused, or an established connection was reset.
	//
	// Although refusal may be a permanent condition, it is classified
	// as retryable because it commonly happens while the service on
	// the remote host is starting or restarting.
	NoConnection
	// Auth indicates that the server demanded credentials which were
	// missing or rejected (HTTP 401 or 403).
	Auth
	// Server indicates a server-side failure: a 5XX status code or a
	// response malformed beyond use.
	Server
	// Parse indicates that a valid HTTP response was received but its
	// body could not be converted into the request's result type.
	Parse
	// kindSentinel provides the total number of kinds typed as a Kind.
	kindSentinel
)

var kindNames = []string{
	"Network",
	"Timeout",
	"NoConnection",
	"Auth",
	"Server",
	"Parse",
}

// Name returns the name of the failure kind.
func (k Kind) Name() string {
	if k < 0 || k >= kindSentinel {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[int(k)]
}

// String returns the name of the failure kind.
func (k Kind) String() string {
	return k.Name()
}

// An Error is a typed failure from the request pipeline.
//
// StatusCode, Body, and Header describe the HTTP response that caused
// the failure, when one was received; StatusCode is zero when the
// failure occurred before any response arrived (for example a timeout
// or a refused connection).
type Error struct {
	// Kind is the failure category.
	Kind Kind
	// StatusCode is the HTTP status code of the offending response, or
	// zero if no response was received.
	StatusCode int
	// Body is the raw body of the offending response, if one was
	// received.
	Body []byte
	// Header contains the response headers of the offending response,
	// if one was received.
	Header http.Header
	// cause is the underlying error, if any.
	cause error
}

// New returns a typed error of the given kind wrapping an underlying
// cause. The cause may be nil.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// WithResponse returns a typed error of the given kind describing an
// offending HTTP response.
func WithResponse(kind Kind, statusCode int, body []byte, header http.Header) *Error {
	return &Error{Kind: kind, StatusCode: statusCode, Body: body, Header: header}
}

// Wrap converts err into a typed error. If err is already an *Error it
// is returned unchanged; otherwise it is classified with Categorize
// and wrapped.
func Wrap(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return New(Categorize(err), err)
}

// Error returns a message describing the failure.
func (e *Error) Error() string {
	switch {
	case e.cause != nil:
		return fmt.Sprintf("httpq: %s: %s", e.Kind, e.cause.Error())
	case e.StatusCode != 0:
		return fmt.Sprintf("httpq: %s: status code %d", e.Kind, e.StatusCode)
	default:
		return fmt.Sprintf("httpq: %s", e.Kind)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timeout reports whether the error represents a timeout. It allows
// *Error to satisfy the timeout interface shared by errors in the
// standard net package.
func (e *Error) Timeout() bool {
	return e.Kind == Timeout
}

// As recovers the typed error from err's wrap chain. The second return
// value is false if err contains no *Error.
func As(err error) (*Error, bool) {
	var fe *Error
	ok := errors.As(err, &fe)
	return fe, ok
}

// Categorize classifies a raw transport error into a failure Kind.
//
// In assessing the error, Categorize looks at wrapped cause errors
// contained within err, not just err itself. A timeout anywhere in the
// chain produces Timeout; a DNS failure, refused connection, or reset
// connection produces NoConnection; anything else produces Network.
// Categorize never checks if an error has a Temporary() function that
// returns true, as the semantics of Temporary() aren't entirely clear.
func Categorize(err error) Kind {
	if err == nil {
		return Network
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NoConnection
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if errno == syscall.ECONNRESET || errno == syscall.ECONNREFUSED {
			return NoConnection
		}
	}

	return Network
}

type hasTimeout interface {
	Timeout() bool
}
