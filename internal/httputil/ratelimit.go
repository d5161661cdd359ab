// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedClient wraps an *http.Client with a client-side token bucket.
// Each external search backend gets its own limiter so a burst of research
// turns cannot exceed the source's published rate limits.
type RateLimitedClient struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewRateLimitedClient returns a client limited to rps requests per second
// with a burst of 1. A non-positive rps means unlimited.
func NewRateLimitedClient(client *http.Client, rps float64) *RateLimitedClient {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &RateLimitedClient{
		Client:  client,
		Limiter: rate.NewLimiter(limit, 1),
	}
}

// Do waits for a token and then executes the request, retrying on HTTP 429
// via DoWithRetry. Waiting respects the request context.
func (c *RateLimitedClient) Do(ctx context.Context, req *http.Request, maxRetries int) (*http.Response, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return DoWithRetry(ctx, c.Client, req, maxRetries)
}
