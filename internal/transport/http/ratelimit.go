package http

import (
	"time"

	"github.com/benbjohnson/clock"
)

// rateLimiter caps inbound frames per fixed window. It is owned by a single read
// loop and is not safe for concurrent use.
type rateLimiter struct {
	limit  int
	window time.Duration
	clock  clock.Clock

	start time.Time
	count int
}

func newRateLimiter(limit int, clk clock.Clock) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{limit: 0}
	}
	if clk == nil {
		clk = clock.New()
	}
	return &rateLimiter{limit: limit, window: time.Minute, clock: clk}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	now := r.clock.Now()
	if r.start.IsZero() || now.Sub(r.start) >= r.window {
		r.start = now
		r.count = 0
	}
	r.count++
	return r.count <= r.limit
}
