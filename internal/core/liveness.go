package core

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// DefaultLivenessInterval is the sweep period used when none is configured.
const DefaultLivenessInterval = 5 * time.Second

// LivenessMonitor periodically asks the hub to reclaim rooms whose publisher is gone.
type LivenessMonitor struct {
	hub      *Hub
	interval time.Duration
	clock    clock.Clock
	log      *zerolog.Logger
}

// NewLivenessMonitor builds a monitor. A nil clock uses the wall clock.
func NewLivenessMonitor(hub *Hub, interval time.Duration, clk clock.Clock, logger *zerolog.Logger) *LivenessMonitor {
	if interval <= 0 {
		interval = DefaultLivenessInterval
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LivenessMonitor{hub: hub, interval: interval, clock: clk, log: logger}
}

// Run sweeps every interval until ctx is cancelled or the hub stops.
func (m *LivenessMonitor) Run(ctx context.Context) {
	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.hub.Done():
			return
		case <-ticker.C:
			n, err := m.hub.Sweep()
			if errors.Is(err, ErrHubStopped) {
				return
			}
			if n > 0 {
				m.log.Info().Int("reclaimed", n).Msg("liveness sweep")
			}
		}
	}
}
