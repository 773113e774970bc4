package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/simbridge/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFiles   []string
}

type fileConfig struct {
	Enabled   bool   `toml:"enabled"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	Transport string `toml:"transport"`
	Timeout   struct {
		DefaultPort string `toml:"default_port"`
		OtherPort   string `toml:"other_port"`
	} `toml:"timeout"`
	Audio struct {
		Mode          string  `toml:"mode"`
		Format        string  `toml:"format"`
		SampleRate    int     `toml:"sample_rate"`
		BufferSamples int     `toml:"buffer_samples"`
		ToneHz        float64 `toml:"tone_hz"`
	} `toml:"audio"`
	Render struct {
		Enabled bool `toml:"enabled"`
		Width   int  `toml:"width"`
		Height  int  `toml:"height"`
	} `toml:"render"`
	Admin struct {
		Listen string `toml:"listen"`
	} `toml:"admin"`
	Sim struct {
		Environment  string `toml:"environment"`
		MaxTicks     int    `toml:"max_ticks"`
		Realtime     bool   `toml:"realtime"`
		EpisodeSteps int    `toml:"episode_steps"`
		Seed         int64  `toml:"seed"`
	} `toml:"sim"`
}

// loadFileConfig applies the keys present in path onto cfg.
func loadFileConfig(path string, cfg config.Config) (config.Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config.Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("enabled") {
		cfg.Enabled = raw.Enabled
	}
	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("transport") {
		cfg.Transport = strings.TrimSpace(raw.Transport)
	}

	if meta.IsDefined("timeout", "default_port") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout.DefaultPort))
		if err != nil {
			return config.Config{}, fmt.Errorf("parse timeout.default_port: %w", err)
		}
		cfg.Timeout.DefaultPort = config.Duration(d)
	}
	if meta.IsDefined("timeout", "other_port") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout.OtherPort))
		if err != nil {
			return config.Config{}, fmt.Errorf("parse timeout.other_port: %w", err)
		}
		cfg.Timeout.OtherPort = config.Duration(d)
	}

	if meta.IsDefined("audio", "mode") {
		cfg.Audio.Mode = config.AudioMode(strings.ToLower(strings.TrimSpace(raw.Audio.Mode)))
	}
	if meta.IsDefined("audio", "format") {
		cfg.Audio.Format = config.SampleFormat(strings.ToLower(strings.TrimSpace(raw.Audio.Format)))
	}
	if meta.IsDefined("audio", "sample_rate") {
		cfg.Audio.SampleRate = raw.Audio.SampleRate
	}
	if meta.IsDefined("audio", "buffer_samples") {
		cfg.Audio.BufferSamples = raw.Audio.BufferSamples
	}
	if meta.IsDefined("audio", "tone_hz") {
		cfg.Audio.ToneHz = raw.Audio.ToneHz
	}

	if meta.IsDefined("render", "enabled") {
		cfg.Render.Enabled = raw.Render.Enabled
	}
	if meta.IsDefined("render", "width") {
		cfg.Render.Width = raw.Render.Width
	}
	if meta.IsDefined("render", "height") {
		cfg.Render.Height = raw.Render.Height
	}

	if meta.IsDefined("admin", "listen") {
		cfg.Admin.Listen = strings.TrimSpace(raw.Admin.Listen)
	}

	if meta.IsDefined("sim", "environment") {
		cfg.Sim.Environment = strings.TrimSpace(raw.Sim.Environment)
	}
	if meta.IsDefined("sim", "max_ticks") {
		cfg.Sim.MaxTicks = raw.Sim.MaxTicks
	}
	if meta.IsDefined("sim", "realtime") {
		cfg.Sim.Realtime = raw.Sim.Realtime
	}
	if meta.IsDefined("sim", "episode_steps") {
		cfg.Sim.EpisodeSteps = raw.Sim.EpisodeSteps
	}
	if meta.IsDefined("sim", "seed") {
		cfg.Sim.Seed = raw.Sim.Seed
	}
	return cfg, nil
}

// serveFlags are the command-line overrides; only flags the user set apply.
type serveFlags struct {
	port      int
	host      string
	simulated bool
	transport string
	admin     string
	maxTicks  int
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.port, "port", 0, "controller port (default 5555)")
	cmd.Flags().StringVar(&f.host, "host", "", "bind host, * for all interfaces")
	cmd.Flags().BoolVar(&f.simulated, "simulated", false, "enable the bridge (otherwise passive unless enabled in config)")
	cmd.Flags().StringVar(&f.transport, "transport", "", "transport kind: zmq|tcp")
	cmd.Flags().StringVar(&f.admin, "admin", "", "admin HTTP listen address")
	cmd.Flags().IntVar(&f.maxTicks, "max-ticks", 0, "stop after this many host ticks (0 = unbounded)")
}

func (f *serveFlags) apply(cmd *cobra.Command, cfg config.Config) config.Config {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("host") {
		cfg.Host = f.host
	}
	if flags.Changed("simulated") {
		cfg.Enabled = cfg.Enabled || f.simulated
	}
	if flags.Changed("transport") {
		cfg.Transport = f.transport
	}
	if flags.Changed("admin") {
		cfg.Admin.Listen = f.admin
	}
	if flags.Changed("max-ticks") {
		cfg.Sim.MaxTicks = f.maxTicks
	}
	return cfg
}

// resolveConfig layers defaults, file, dotenv and environment. Flags are
// applied by the caller last.
func resolveConfig(opts *rootOptions) (config.Config, error) {
	cfg := config.Default()
	if path := strings.TrimSpace(opts.configPath); path != "" {
		loaded, err := loadFileConfig(path, cfg)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if _, err := config.LoadDotEnv(opts.envFiles...); err != nil {
		return config.Config{}, err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
