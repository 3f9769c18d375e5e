package client

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
)

// ErrMaxAttempts is returned once the reconnect budget is spent.
var ErrMaxAttempts = errors.New("max reconnect attempts reached")

const (
	DefaultBaseDelay   = time.Second
	DefaultMaxAttempts = 5
)

// Reconnector hands out exponential backoff delays: base, 2*base, 4*base, ...
// It is not safe for concurrent use.
type Reconnector struct {
	base        time.Duration
	maxAttempts int
	clock       clock.Clock
	attempt     int
}

// NewReconnector builds a reconnector. Zero values fall back to the defaults and
// a nil clock uses the wall clock.
func NewReconnector(base time.Duration, maxAttempts int, clk clock.Clock) *Reconnector {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Reconnector{base: base, maxAttempts: maxAttempts, clock: clk}
}

// Next consumes an attempt and returns its delay. ok is false when none remain.
func (r *Reconnector) Next() (delay time.Duration, ok bool) {
	if r.attempt >= r.maxAttempts {
		return 0, false
	}
	r.attempt++
	return r.base << (r.attempt - 1), true
}

// Reset is called after a successful connection.
func (r *Reconnector) Reset() {
	r.attempt = 0
}

// Attempt is the number of attempts consumed since the last Reset.
func (r *Reconnector) Attempt() int {
	return r.attempt
}

// Wait sleeps for the next delay. It returns ErrMaxAttempts when the budget is
// spent and ctx.Err() if ctx ends first.
func (r *Reconnector) Wait(ctx context.Context) error {
	delay, ok := r.Next()
	if !ok {
		return ErrMaxAttempts
	}
	timer := r.clock.Timer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
