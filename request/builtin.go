// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"encoding/json"

	"github.com/gogama/httpq/fault"
)

// NewBytes constructs a request whose result is the raw response
// body.
func NewBytes(method, url string, onResponse func(data []byte), onError func(err error)) *Request {
	r := New(method, url, onError)
	r.Parse = func(resp *NetworkResponse) *Response {
		return NewResponse(resp.Data, ParseCacheHeaders(resp))
	}
	if onResponse != nil {
		r.OnResponse = func(result any) {
			onResponse(result.([]byte))
		}
	}
	return r
}

// NewString constructs a request whose result is the response body
// decoded as a UTF-8 string.
func NewString(method, url string, onResponse func(s string), onError func(err error)) *Request {
	r := New(method, url, onError)
	r.Parse = func(resp *NetworkResponse) *Response {
		return NewResponse(string(resp.Data), ParseCacheHeaders(resp))
	}
	if onResponse != nil {
		r.OnResponse = func(result any) {
			onResponse(result.(string))
		}
	}
	return r
}

// NewJSON constructs a request whose result is the response body
// unmarshalled into a value of type T. If body is non-nil it is
// marshalled to JSON and sent as the request body with a JSON content
// type. A body that cannot be unmarshalled produces a Parse failure.
func NewJSON[T any](method, url string, body any, onResponse func(v T), onError func(err error)) *Request {
	r := New(method, url, onError)
	r.Header.Set("Accept", "application/json")
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			panic("httpq/request: unmarshallable JSON request body: " + err.Error())
		}
		r.Body = data
		r.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	r.Parse = func(resp *NetworkResponse) *Response {
		var v T
		if err := json.Unmarshal(resp.Data, &v); err != nil {
			return NewErrorResponse(fault.New(fault.Parse, err))
		}
		return NewResponse(v, ParseCacheHeaders(resp))
	}
	if onResponse != nil {
		r.OnResponse = func(result any) {
			onResponse(result.(T))
		}
	}
	return r
}
