// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the data types describing one logical HTTP
operation flowing through the httpq dispatch pipeline: the Request
itself, the raw NetworkResponse produced by the transport, and the
parsed Response handed to the delivery layer.

A Request is a plain record, not a class hierarchy: the conversion
from raw bytes to a typed result is a user-supplied Parse function,
and delivery is a pair of listener functions. The built-in
constructors NewBytes, NewString, and NewJSON cover the common result
kinds; anything else is a Parse function away.

Fields configured before the request is added to a queue (tag,
priority, retry policy, caching) must not be touched afterward. The
remaining lifecycle state (sequence, cancellation, delivery flag,
attached cache entry) is managed by the queue and its dispatchers and
is safe for concurrent access.
*/
package request
