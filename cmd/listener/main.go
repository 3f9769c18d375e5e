package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/banndicoot-king/stream-pru/internal/client"
	"github.com/banndicoot-king/stream-pru/internal/log"
	"github.com/banndicoot-king/stream-pru/internal/playback"
	"github.com/banndicoot-king/stream-pru/internal/proto"
)

type options struct {
	url         string
	room        string
	name        string
	userID      string
	out         string
	sampleRate  int
	duration    time.Duration
	baseDelay   time.Duration
	maxAttempts int
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "listener",
		Short: "Join a relay stream and record what it plays",
		Long: `Connects to a stream relay, joins a room and schedules every media frame
through the playback controller. The resulting timeline, silence included,
is written as a WAV file on exit.

Examples:
  listener --room call-42
  listener --url ws://relay:3031/ws?ptpl=secret --out call.wav --duration 30s`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.url, "url", "ws://localhost:3031/ws", "relay WebSocket URL")
	flags.StringVar(&opts.room, "room", "", "room to join (default: first announced)")
	flags.StringVar(&opts.name, "name", "listener", "display name sent with register-user")
	flags.StringVar(&opts.userID, "id", "", "user id (default: random)")
	flags.StringVarP(&opts.out, "out", "o", "listener.wav", "WAV file to write")
	flags.IntVar(&opts.sampleRate, "sample-rate", playback.DefaultFormat().SampleRate, "timeline sample rate")
	flags.DurationVar(&opts.duration, "duration", 0, "stop after this long (0: until interrupted)")
	flags.DurationVar(&opts.baseDelay, "reconnect-delay", client.DefaultBaseDelay, "first reconnect delay, doubled per attempt")
	flags.IntVar(&opts.maxAttempts, "reconnect-attempts", client.DefaultMaxAttempts, "reconnect attempts before giving up")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level")

	return cmd
}

func run(ctx context.Context, opts options) error {
	logger := log.New(opts.logLevel)
	if opts.userID == "" {
		opts.userID = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	cfg := playback.DefaultConfig()
	cfg.Format.SampleRate = opts.sampleRate
	sink := playback.NewWAVSink(cfg.Format)
	scheduler := playback.NewScheduler(cfg, playback.NewClock(nil), sink, logger)

	session := client.NewSession(client.SessionConfig{
		URL:    opts.url,
		UserID: opts.userID,
		Name:   opts.name,
		Room:   opts.room,
	}, client.NewReconnector(opts.baseDelay, opts.maxAttempts, nil), onFrame(scheduler, logger), logger)

	runErr := session.Run(ctx)
	session.Close()

	if err := writeWAV(opts.out, sink); err != nil {
		return errors.Join(runErr, err)
	}
	logger.Info().Str("file", opts.out).Dur("length", sink.Length()).Msg("timeline written")
	return runErr
}

func onFrame(scheduler *playback.Scheduler, logger *zerolog.Logger) func(proto.Frame) {
	return func(f proto.Frame) {
		switch f.Event {
		case proto.EventMedia:
			if f.Media == nil {
				return
			}
			if _, err := scheduler.Handle(*f.Media); err != nil {
				logger.Warn().Err(err).Msg("dropping undecodable frame")
			}
		case proto.EventAddStream:
			for _, s := range f.Stream {
				logger.Info().Str("room_id", s.ID).Str("name", s.Name).Msg("stream available")
			}
		case proto.EventRemoveStream:
			logger.Info().Str("room_id", f.RoomID).Str("reason", f.Reason).Msg("stream removed")
		case proto.EventJoinedRoom:
			logger.Info().Str("room_id", f.RoomID).Msg("joined room")
		case proto.EventError:
			logger.Warn().Str("message", f.Message).Msg("relay error")
		}
	}
}

func writeWAV(path string, sink *playback.WAVSink) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := sink.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
