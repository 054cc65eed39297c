// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package fault defines the typed error taxonomy surfaced by the httpq
request pipeline.

Every terminal failure delivered to a request's error listener is an
*Error carrying a Kind. The Kind tells the caller what broke: the
transport timed out (Timeout), no connection could be established
(NoConnection), the server demanded credentials (Auth), the server
itself failed (Server), the response body could not be converted into
the expected result type (Parse), or some other transport-level problem
occurred (Network).

Use Categorize to classify a raw transport error from the lower-level
HTTP client, and As to recover the typed error from a wrapped chain.
*/
package fault
