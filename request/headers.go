// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gogama/httpq/cache"
)

// ParseCacheHeaders derives a cache entry from a network response
// according to its caching headers, or returns nil if the response is
// not cacheable (Cache-Control: no-cache or no-store).
//
// When a Cache-Control header is present, freshness comes from its
// max-age directive alone (no max-age means no freshness) and Expires
// is ignored. Without Cache-Control, freshness comes from the Expires
// header interpreted against the server's Date header.
// The soft expiry is set to the freshness deadline; the hard expiry
// extends past it only when the server grants a
// stale-while-revalidate window and does not demand revalidation. A
// response with no freshness information at all yields an entry that
// is already expired: it will never be served directly, but its
// entity tag and server date still enable conditional revalidation.
func ParseCacheHeaders(resp *NetworkResponse) *cache.Entry {
	now := time.Now()
	h := resp.Header

	var serverDate time.Time
	if v := h.Get("Date"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			serverDate = t
		}
	}

	var (
		maxAge          time.Duration
		staleWhileReval time.Duration
		hasCacheControl bool
		mustRevalidate  bool
	)
	if cc := h.Get("Cache-Control"); cc != "" {
		hasCacheControl = true
		for _, token := range strings.Split(cc, ",") {
			token = strings.TrimSpace(token)
			switch {
			case token == "no-cache" || token == "no-store":
				return nil
			case token == "must-revalidate" || token == "proxy-revalidate":
				mustRevalidate = true
			case strings.HasPrefix(token, "max-age="):
				if n, err := strconv.ParseInt(token[len("max-age="):], 10, 64); err == nil {
					maxAge = time.Duration(n) * time.Second
				}
			case strings.HasPrefix(token, "stale-while-revalidate="):
				if n, err := strconv.ParseInt(token[len("stale-while-revalidate="):], 10, 64); err == nil {
					staleWhileReval = time.Duration(n) * time.Second
				}
			}
		}
	}

	var softExpiry, expiry time.Time
	if hasCacheControl {
		softExpiry = now.Add(maxAge)
		if mustRevalidate {
			expiry = softExpiry
		} else {
			expiry = softExpiry.Add(staleWhileReval)
		}
	} else if v := h.Get("Expires"); v != "" && !serverDate.IsZero() {
		if serverExpires, err := http.ParseTime(v); err == nil {
			lifetime := serverExpires.Sub(serverDate)
			if lifetime > 0 {
				softExpiry = now.Add(lifetime)
				expiry = softExpiry
			}
		}
	}
	// No freshness information leaves the zero expiry instants: the
	// entry is born expired but keeps its validators.

	return &cache.Entry{
		Data:       resp.Data,
		ETag:       h.Get("ETag"),
		ServerDate: serverDate,
		Expiry:     expiry,
		SoftExpiry: softExpiry,
		Header:     cloneHeader(h),
	}
}

func cloneHeader(h http.Header) http.Header {
	h2 := make(http.Header, len(h))
	for k, vs := range h {
		vs2 := make([]string, len(vs))
		copy(vs2, vs)
		h2[k] = vs2
	}
	return h2
}
