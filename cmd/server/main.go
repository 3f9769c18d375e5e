package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/banndicoot-king/stream-pru/internal/app"
	"github.com/banndicoot-king/stream-pru/internal/config"
	"github.com/banndicoot-king/stream-pru/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:          "stream-relay",
		Short:        "Relay live audio from publishers to listeners over WebSocket",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, overrides)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ./config.yaml)")
	cmd.AddCommand(newTokenCmd(&configPath))

	flags := cmd.Flags()
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.DurationVar(&overrides.LivenessInterval, "liveness-interval", 0, "dead publisher sweep interval")
	flags.DurationVar(&overrides.PingInterval, "ping-interval", 0, "websocket keepalive period")
	flags.IntVar(&overrides.SendBuffer, "send-buffer", 0, "per-connection outbound queue length")
	flags.StringVar(&overrides.AuthMode, "auth-mode", "", "admission mode (none, query_key, jwt)")

	return cmd
}

func run(ctx context.Context, configPath string, overrides config.Config) error {
	boot := log.New("info")

	cfg, path, err := config.Load(boot, configPath)
	if err != nil {
		boot.Error().Err(err).Msg("failed to load config")
		return err
	}
	cfg.UpdateFrom(overrides)
	if err := cfg.Validate(); err != nil {
		boot.Error().Err(err).Msg("invalid configuration")
		return err
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", path).Msg("configuration loaded")

	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting stream relay")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
