// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"

	"github.com/gogama/httpq/cache"
)

// A NetworkResponse is the raw, fully-buffered result of one HTTP
// round trip, before parsing.
type NetworkResponse struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Data is the fully-buffered response body. For a 304 response it
	// contains the previously-cached body.
	Data []byte
	// Header contains the response headers. For a 304 response it
	// contains the cached headers merged with the headers of the 304
	// itself.
	Header http.Header
	// NotModified is true iff the server answered 304 Not Modified to
	// a conditional request.
	NotModified bool
}

// NewNetworkResponse wraps a body and headers in a NetworkResponse
// with status 200. The cache dispatcher uses it to re-parse cached
// bytes through the same Parse function that handles live responses.
func NewNetworkResponse(data []byte, header http.Header) *NetworkResponse {
	return &NetworkResponse{
		StatusCode: http.StatusOK,
		Data:       data,
		Header:     header,
	}
}

// A Response is a parsed response ready for delivery: either a typed
// result with an optional cache entry, or an error.
type Response struct {
	// Result is the parsed result. Its dynamic type is whatever the
	// request's Parse function produced.
	Result any
	// Entry is the cache entry derived from the response, or nil if
	// the response should not be cached.
	Entry *cache.Entry
	// Err is the failure, if any: a parse failure, or a terminal
	// network error posted for delivery. A Response carries a result
	// or an error, never both.
	Err error
	// Intermediate is true when this response was served from a
	// soft-expired cache entry and a refreshed, final response is
	// still to come.
	Intermediate bool
}

// NewResponse returns a successful parsed response.
func NewResponse(result any, entry *cache.Entry) *Response {
	return &Response{Result: result, Entry: entry}
}

// NewErrorResponse returns a failed parsed response.
func NewErrorResponse(err error) *Response {
	return &Response{Err: err}
}

// IsSuccess reports whether the response carries a result rather than
// an error.
func (r *Response) IsSuccess() bool {
	return r.Err == nil
}
