package redis

import (
	"context"
	"time"
)

// Window is the outcome of one hit against a fixed-window counter.
type Window struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// RateLimitKey namespaces a rate limit counter.
func (c *Client) RateLimitKey(scope string) string {
	return buildKey("rate_limit", scope)
}

// FixedWindow counts a hit for scope. The window starts at the first hit; a
// counter that lost its expiry (crash between INCR and EXPIRE) gets it back.
func (c *Client) FixedWindow(ctx context.Context, scope string, limit int64, window time.Duration) (Window, error) {
	if c.store == nil {
		return Window{}, errNotInitialized
	}
	key := c.RateLimitKey(scope)

	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return Window{}, err
	}
	remaining, err := c.store.PTTL(ctx, key).Result()
	if err != nil {
		return Window{}, err
	}
	if remaining < 0 {
		if err := c.store.Expire(ctx, key, window).Err(); err != nil {
			return Window{}, err
		}
		remaining = window
	}

	return Window{Allowed: count <= limit, Count: count, RetryAfter: remaining}, nil
}
