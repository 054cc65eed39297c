// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package retry provides the per-request retry policy consulted by the
network layer of the httpq request pipeline.

Unlike a shared client-wide policy, a retry policy here is stateful and
belongs to exactly one request: it tracks the attempt count and the
current attempt timeout, and it grows the timeout by a backoff
multiplier on every failed attempt. Construct a fresh policy for each
request (the pipeline's request constructors do this for you).

The companion Decider type classifies which failures are eligible for
retry at all; the network implementation asks the Decider first and
only then spends one of the policy's attempts.
*/
package retry
