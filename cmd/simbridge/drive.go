package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/danmuck/simbridge/internal/protocol"
	"github.com/danmuck/simbridge/internal/transport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type driveOptions struct {
	addr            string
	transport       string
	sampleFrequency int
	timeScale       int
	timestep        float64
	steps           int
	quit            bool
	timeout         time.Duration
}

func newDriveCommand(root *rootOptions) *cobra.Command {
	opts := &driveOptions{}
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Act as a controller: handshake, send control steps and print observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(root)
			if err != nil {
				return err
			}
			tcfg := transport.DefaultConfig()
			tcfg.Address = transport.Address(cfg.Host, cfg.Port)
			tcfg.Kind, err = transport.ParseKind(cfg.Transport)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				tcfg.Address = opts.addr
			}
			if cmd.Flags().Changed("transport") {
				if tcfg.Kind, err = transport.ParseKind(opts.transport); err != nil {
					return err
				}
			}
			tcfg.Timeout = opts.timeout
			return runDrive(cmd.Context(), tcfg, *opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "bridge address host:port")
	cmd.Flags().StringVar(&opts.transport, "transport", "", "transport kind: zmq|tcp")
	cmd.Flags().IntVar(&opts.sampleFrequency, "sample-frequency", 20, "handshake sampleFrequency")
	cmd.Flags().IntVar(&opts.timeScale, "time-scale", 1, "handshake timeScale")
	cmd.Flags().Float64Var(&opts.timestep, "timestep", 0.05, "handshake timestep and control step spacing")
	cmd.Flags().IntVar(&opts.steps, "steps", 10, "control messages to send")
	cmd.Flags().BoolVar(&opts.quit, "quit", true, "ask the bridge to quit on the last step")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request reply timeout")
	return cmd
}

func runDrive(ctx context.Context, cfg transport.Config, opts driveOptions) error {
	client, err := transport.Dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	handshake, err := protocol.EncodeHandshake(protocol.HandshakeOptions{
		SampleFrequency: opts.sampleFrequency,
		TimeScale:       opts.timeScale,
		Timestep:        opts.timestep,
	})
	if err != nil {
		return err
	}
	if _, err := exchange(ctx, client, handshake); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	log.Info().Str("addr", cfg.Address).Msg("handshake acknowledged")

	for i := 1; i <= opts.steps; i++ {
		msg := protocol.ControlMessage{
			QuitApplication:         opts.quit && i == opts.steps,
			HeadsetPosition:         protocol.Vec3{0, 1.6, 0},
			HeadsetRotation:         protocol.IdentityQuat,
			LeftControllerPosition:  protocol.Vec3{-0.2, 1.2, 0.3},
			LeftControllerRotation:  protocol.IdentityQuat,
			RightControllerPosition: protocol.Vec3{0.2, 1.2, 0.3 + 0.02*float32(i)},
			RightControllerRotation: protocol.IdentityQuat,
			CurrentTimestep:         float64(i-1) * opts.timestep,
			NextTimestep:            float64(i) * opts.timestep,
		}
		text, err := protocol.EncodeControl(msg)
		if err != nil {
			return err
		}
		obs, err := exchange(ctx, client, text)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		log.Info().
			Int("step", i).
			Bool("finished", obs.IsFinished).
			Float64("reward", obs.Reward).
			Float64("time_feature", obs.TimeFeature).
			Int("image_bytes", len(obs.Image)).
			Int("audio_samples", len(obs.Audio)).
			Str("log", formatLogDict(obs.LogDict)).
			Msg("observation")
	}
	return nil
}

func exchange(ctx context.Context, client *transport.Client, text string) (protocol.Observation, error) {
	reply, err := client.Request(ctx, text)
	if err != nil {
		return protocol.Observation{}, err
	}
	return protocol.DecodeObservation(reply)
}

func formatLogDict(d protocol.LogDict) string {
	if d == nil {
		return ""
	}
	parts := make([]string, 0, len(d))
	for _, k := range slices.Sorted(maps.Keys(d)) {
		parts = append(parts, k+"="+d[k].Text())
	}
	return strings.Join(parts, " ")
}
