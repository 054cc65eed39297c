// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package cache defines the keyed byte store consulted by the httpq
request pipeline, together with the Entry record holding response
bytes and expiry metadata.

An Entry distinguishes a soft expiry from a hard expiry. Before the
soft expiry, the entry is fresh and may be served without contacting
the network. Between the soft and hard expiry, the entry is usable but
stale: the pipeline serves it as an intermediate response while
refreshing it in the background. Past the hard expiry, the entry must
be refetched, although its validator metadata (entity tag and server
date) is still sent so the server can answer 304 Not Modified.

Implementations live in the subpackages memcache (jellydator/ttlcache
backed), bigcache (allegro/bigcache backed), and rediscache (Redis
backed).
*/
package cache
