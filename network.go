// Copyright 2023 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"

	"github.com/gogama/httpq/fault"
	"github.com/gogama/httpq/metrics"
	"github.com/gogama/httpq/request"
	"github.com/gogama/httpq/retry"
)

// A Network executes one logical HTTP operation synchronously,
// honoring the request's retry policy, and returns the raw buffered
// response. Terminal failures are typed *fault.Error values (or the
// error the retry policy surfaced when its budget ran out).
//
// Implementations must be safe for concurrent use: every worker in
// the network dispatcher pool shares one Network.
type Network interface {
	PerformRequest(r *request.Request) (*request.NetworkResponse, error)
}

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	Do(r *http.Request) (*http.Response, error)
}

// slowRoundTripThreshold is the duration past which a completed round
// trip is logged.
const slowRoundTripThreshold = 3 * time.Second

// Ensure BasicNetwork implements Network.
var _ Network = (*BasicNetwork)(nil)

// A BasicNetwork is a Network on top of an HTTPDoer. Its zero value
// is a valid configuration using http.DefaultClient, the default
// retry eligibility decider, and no logging.
//
// For each attempt, BasicNetwork applies the request retry policy's
// current timeout, sends conditional validators when the request
// carries a cache entry, and buffers the entire response body. Failed
// attempts that the Decider rules eligible are retried until the
// request's policy exhausts its budget.
type BasicNetwork struct {
	// Doer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If Doer is nil, http.DefaultClient from the standard net/http
	// package is used.
	Doer HTTPDoer
	// Decider classifies which failures are eligible for retry.
	//
	// If Decider is nil, retry.DefaultDecider is used.
	Decider retry.Decider
	// Logger receives slow round-trip logging. If nil, logging is
	// disabled.
	Logger *zap.Logger
}

// PerformRequest executes the request's HTTP operation, retrying per
// its retry policy, and returns the raw buffered response.
func (n *BasicNetwork) PerformRequest(r *request.Request) (*request.NetworkResponse, error) {
	start := time.Now()
	for {
		resp, body, err := n.attempt(r)

		var ferr *fault.Error
		if err == nil {
			sc := resp.StatusCode
			switch {
			case sc == http.StatusNotModified:
				n.logSlow(r, start, sc)
				return notModifiedResponse(r, resp), nil
			case sc >= 200 && sc <= 299:
				n.logSlow(r, start, sc)
				return &request.NetworkResponse{
					StatusCode: sc,
					Data:       body,
					Header:     resp.Header,
				}, nil
			case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
				ferr = fault.WithResponse(fault.Auth, sc, body, resp.Header)
			case sc >= 500:
				ferr = fault.WithResponse(fault.Server, sc, body, resp.Header)
			default:
				ferr = fault.WithResponse(fault.Network, sc, body, resp.Header)
			}
		} else {
			ferr = fault.Wrap(err)
		}

		if !n.decider().Decide(ferr) {
			return nil, ferr
		}
		// Eligible for retry; spend one of the policy's attempts.
		policy := r.RetryPolicy()
		if rerr := policy.Retry(ferr); rerr != nil {
			return nil, rerr
		}
		metrics.RecordNetworkRetry()
		r.AddMarker(fmt.Sprintf("retry [%s, timeout=%s]", ferr.Kind, policy.CurrentTimeout()))
	}
}

// attempt performs a single HTTP round trip with the policy's current
// timeout and buffers the response body.
func (n *BasicNetwork) attempt(r *request.Request) (*http.Response, []byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.RetryPolicy().CurrentTimeout())
	defer cancel()

	req, err := n.buildRequest(ctx, r)
	if err != nil {
		return nil, nil, err
	}

	metrics.RecordNetworkAttempt()
	resp, err := n.doer().Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	return resp, body, nil
}

func (n *BasicNetwork) buildRequest(ctx context.Context, r *request.Request) (*http.Request, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, err
	}

	for name, values := range r.Header {
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, fmt.Errorf("httpq: invalid header field name %q", name)
		}
		for _, value := range values {
			if !httpguts.ValidHeaderFieldValue(value) {
				return nil, fmt.Errorf("httpq: invalid value for header field %q", name)
			}
			req.Header.Add(name, value)
		}
	}

	// Conditional validators for revalidating an attached cache
	// entry.
	if entry := r.CacheEntry(); entry != nil {
		if entry.ETag != "" {
			req.Header.Set("If-None-Match", entry.ETag)
		}
		if !entry.ServerDate.IsZero() {
			req.Header.Set("If-Modified-Since", entry.ServerDate.UTC().Format(http.TimeFormat))
		}
	}
	return req, nil
}

// notModifiedResponse combines a 304 response with the request's
// cached entry: the body comes from cache, and the cached headers are
// carried forward except where the 304 supplies replacements.
func notModifiedResponse(r *request.Request, resp *http.Response) *request.NetworkResponse {
	nr := &request.NetworkResponse{
		StatusCode:  http.StatusNotModified,
		NotModified: true,
		Header:      resp.Header,
	}
	entry := r.CacheEntry()
	if entry == nil {
		return nr
	}
	nr.Data = entry.Data
	merged := make(http.Header, len(entry.Header)+len(resp.Header))
	for name, values := range entry.Header {
		merged[name] = values
	}
	for name, values := range resp.Header {
		merged[name] = values
	}
	nr.Header = merged
	return nr
}

func (n *BasicNetwork) logSlow(r *request.Request, start time.Time, statusCode int) {
	if n.Logger == nil {
		return
	}
	elapsed := time.Since(start)
	if elapsed < slowRoundTripThreshold {
		return
	}
	n.Logger.Info("slow HTTP round trip",
		zap.String("request", r.String()),
		zap.Duration("elapsed", elapsed),
		zap.Int("statusCode", statusCode),
		zap.Int("retryCount", r.RetryPolicy().CurrentRetryCount()))
}

func (n *BasicNetwork) doer() HTTPDoer {
	if n.Doer == nil {
		return http.DefaultClient
	}
	return n.Doer
}

func (n *BasicNetwork) decider() retry.Decider {
	if n.Decider == nil {
		return retry.DefaultDecider
	}
	return n.Decider
}
