// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cache

import (
	"net/http"
	"time"
)

// A Cache is a keyed store of response entries with expiry metadata.
//
// Implementations must be safe for concurrent use by multiple
// goroutines: the cache dispatcher reads while network dispatchers
// write.
type Cache interface {
	// Initialize performs any startup work the cache needs before its
	// first use. It is permitted to block, for example to scan a disk
	// directory or to establish a remote connection. The cache
	// dispatcher calls Initialize exactly once before taking its first
	// request.
	Initialize()
	// Get returns the entry stored under key, or nil if there is none.
	// Expired entries are returned, not suppressed: the dispatcher
	// needs their validator metadata for conditional revalidation.
	Get(key string) *Entry
	// Put stores entry under key, replacing any previous entry.
	Put(key string, entry *Entry)
	// Invalidate marks the entry under key as needing refresh on next
	// use. If fullExpire is true the entry is hard-expired and must be
	// refetched; otherwise only its soft expiry is cleared so the next
	// use serves it stale while refreshing.
	Invalidate(key string, fullExpire bool)
	// Remove deletes the entry stored under key, if any.
	Remove(key string)
	// Clear empties the cache.
	Clear()
}

// An Entry is one cached response: the raw body bytes plus the
// metadata needed to decide freshness and to revalidate with the
// server.
type Entry struct {
	// Data is the raw response body.
	Data []byte
	// ETag is the entity tag returned by the server, if any.
	ETag string
	// ServerDate is the date of the response as reported by the
	// server's Date header. The zero value means the server sent no
	// date.
	ServerDate time.Time
	// Expiry is the hard expiry instant. At or past this instant the
	// entry must be refetched.
	Expiry time.Time
	// SoftExpiry is the soft expiry instant. At or past this instant,
	// but before Expiry, the entry may be served stale while a refresh
	// is dispatched.
	SoftExpiry time.Time
	// Header contains the response headers the entry was stored with.
	Header http.Header
}

// IsExpired reports whether the entry is past its hard expiry and must
// be refetched.
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expiry)
}

// RefreshNeeded reports whether the entry is past its soft expiry and
// a refresh should be dispatched, even if the entry itself is still
// servable.
func (e *Entry) RefreshNeeded() bool {
	return !time.Now().Before(e.SoftExpiry)
}
