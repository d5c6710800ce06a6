// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultRetryDelay is the wait used when a 429 response carries no usable
// Retry-After header. Tests override this to avoid real sleeps.
var DefaultRetryDelay = 1 * time.Second

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests), sleeping for the server-provided Retry-After duration before
// each retry. A missing or malformed Retry-After falls back to
// DefaultRetryDelay.
//
// When maxRetries is zero or negative, retries continue until the upstream
// stops rate-limiting; Semantic Scholar limits are IP-based and lift within
// seconds, so waiting out the limit keeps every record enriched. A positive
// maxRetries caps the attempts, and the last 429 response is returned so
// the caller can inspect it. On each 429 the response body is drained and
// closed before sleeping. If the context is cancelled during a wait the
// function returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			return resp, nil
		}

		delay := retryAfter(resp)

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// retryAfter parses the Retry-After header as a second count. HTTP-date
// forms are not sent by the APIs this pipeline talks to, so only the
// integer form is handled.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return DefaultRetryDelay
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return DefaultRetryDelay
	}
	return time.Duration(secs) * time.Second
}
