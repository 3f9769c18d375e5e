package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/banndicoot-king/stream-pru/internal/proto"
)

// Config holds the lead-time controller constants.
type Config struct {
	// TargetLead is how far ahead of the clock the playhead should sit.
	TargetLead time.Duration
	// HighWater is the margin above TargetLead that triggers a pull-back.
	HighWater time.Duration
	// LowWater is the margin below TargetLead that triggers a snap forward.
	LowWater time.Duration
	// PullBack is the step by which an overbuilt playhead is moved back.
	PullBack time.Duration
	// Format applies to frames that do not describe their own.
	Format Format
}

// DefaultConfig keeps about 100ms of audio queued ahead of the clock.
func DefaultConfig() Config {
	return Config{
		TargetLead: 100 * time.Millisecond,
		HighWater:  300 * time.Millisecond,
		LowWater:   200 * time.Millisecond,
		PullBack:   200 * time.Millisecond,
		Format:     DefaultFormat(),
	}
}

// Correction is the adjustment applied before scheduling a frame.
type Correction int

const (
	CorrectionNone Correction = iota
	CorrectionPullBack
	CorrectionSnap
)

func (c Correction) String() string {
	switch c {
	case CorrectionPullBack:
		return "pull-back"
	case CorrectionSnap:
		return "snap"
	default:
		return "none"
	}
}

// Sink plays a clip starting at an audio-clock time.
type Sink interface {
	Play(at time.Duration, clip Clip) error
}

// Scheduled reports where a frame was placed.
type Scheduled struct {
	At         time.Duration
	Duration   time.Duration
	Gap        time.Duration
	Correction Correction
}

// Scheduler places frames on the sink, keeping a bounded lead over the clock.
type Scheduler struct {
	mu       sync.Mutex
	cfg      Config
	clock    Clock
	sink     Sink
	playhead time.Duration
	log      *zerolog.Logger
}

// NewScheduler builds a scheduler with its playhead at the clock's current time.
func NewScheduler(cfg Config, clk Clock, sink Sink, logger *zerolog.Logger) *Scheduler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Scheduler{
		cfg:      cfg,
		clock:    clk,
		sink:     sink,
		playhead: clk.Now(),
		log:      logger,
	}
}

// Playhead returns the time at which the next frame would start without correction.
func (s *Scheduler) Playhead() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playhead
}

// Handle decodes and schedules one media payload. On error the playhead is unchanged.
func (s *Scheduler) Handle(media proto.MediaPayload) (Scheduled, error) {
	clip, err := DecodePCM(media.Payload, s.cfg.Format.Resolve(media.MediaFormat))
	if err != nil {
		return Scheduled{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	gap := s.playhead - now
	playhead := s.playhead
	corr := CorrectionNone
	switch {
	case gap > s.cfg.TargetLead+s.cfg.HighWater:
		playhead -= s.cfg.PullBack
		corr = CorrectionPullBack
	case gap < s.cfg.TargetLead-s.cfg.LowWater:
		playhead = now + s.cfg.TargetLead
		corr = CorrectionSnap
	}

	if err := s.sink.Play(playhead, clip); err != nil {
		return Scheduled{}, fmt.Errorf("play: %w", err)
	}
	dur := clip.Duration()
	s.playhead = playhead + dur

	if corr != CorrectionNone {
		s.log.Debug().Dur("gap", gap).Str("correction", corr.String()).Dur("at", playhead).Msg("playhead corrected")
	}
	return Scheduled{At: playhead, Duration: dur, Gap: gap, Correction: corr}, nil
}
