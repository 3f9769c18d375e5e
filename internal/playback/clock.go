package playback

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Clock is the audio clock: time elapsed since playback began.
type Clock interface {
	Now() time.Duration
}

type audioClock struct {
	clk   clock.Clock
	start time.Time
}

// NewClock starts an audio clock on clk. A nil clk uses the wall clock.
func NewClock(clk clock.Clock) Clock {
	if clk == nil {
		clk = clock.New()
	}
	return &audioClock{clk: clk, start: clk.Now()}
}

func (c *audioClock) Now() time.Duration {
	return c.clk.Since(c.start)
}
