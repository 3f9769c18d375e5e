package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/banndicoot-king/stream-pru/internal/auth"
	"github.com/banndicoot-king/stream-pru/internal/config"
	"github.com/banndicoot-king/stream-pru/internal/log"
)

func newTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		name   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:          "token",
		Short:        "Print an admission token for auth_mode jwt",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.Load(log.Nop(), *configPath)
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("jwt_secret is not configured")
			}

			jwtCfg := auth.JWTConfigFrom(cfg)
			jwtCfg.TTL = ttl
			token, err := auth.GenerateToken(jwtCfg, userID, name)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&userID, "user", "", "user id carried in the token")
	flags.StringVar(&name, "name", "", "display name carried in the token")
	flags.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
