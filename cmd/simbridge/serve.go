package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/simbridge/internal/admin"
	"github.com/danmuck/simbridge/internal/host"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Bind the bridge and run the headless host until the controller quits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			cfg = flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := host.NewRunner(cfg)
			if listen := strings.TrimSpace(cfg.Admin.Listen); listen != "" {
				srv := admin.New(listen, runner)
				if err := srv.Start(); err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			log.Info().
				Bool("enabled", cfg.Enabled).
				Str("transport", cfg.Transport).
				Int("port", cfg.Port).
				Str("environment", cfg.Sim.Environment).
				Msg("simbridge starting")
			return runner.Run(ctx)
		},
	}
	flags.register(cmd)
	return cmd
}
