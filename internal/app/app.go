package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/banndicoot-king/stream-pru/internal/auth"
	"github.com/banndicoot-king/stream-pru/internal/config"
	"github.com/banndicoot-king/stream-pru/internal/control"
	"github.com/banndicoot-king/stream-pru/internal/core"
	"github.com/banndicoot-king/stream-pru/internal/metrics"
	transporthttp "github.com/banndicoot-king/stream-pru/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	liveness        *core.LivenessMonitor
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	authn, err := auth.New(*cfg)
	if err != nil {
		return nil, fmt.Errorf("init auth: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	hub := core.NewHub(logger, m)
	liveness := core.NewLivenessMonitor(hub, cfg.LivenessInterval, nil, logger)

	server := transporthttp.NewServer(*cfg, transporthttp.Deps{
		Hub:      hub,
		Sends:    control.NewSendList(),
		Auth:     authn,
		Metrics:  m,
		Gatherer: reg,
	}, logger)

	logger.Info().
		Str("auth_mode", cfg.AuthMode).
		Dur("liveness_interval", cfg.LivenessInterval).
		Int("send_buffer", cfg.SendBuffer).
		Msg("relay configured")

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		liveness:        liveness,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer func() {
		stopHub()
		<-a.hub.Done()
	}()
	go a.hub.Run(hubCtx)
	go a.liveness.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Hijacked websocket connections are not tracked by Shutdown; stopping the
		// hub closes their queues so each gateway closes its socket.
		stopHub()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
