package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/simbridge/internal/bridge"
	"github.com/danmuck/simbridge/internal/transport"
)

var (
	ErrInvalid = errors.New("config: invalid")
)

type AudioMode string

const (
	AudioNone   AudioMode = "none"
	AudioMono   AudioMode = "mono"
	AudioStereo AudioMode = "stereo"
)

func (m AudioMode) Channels() int {
	switch m {
	case AudioMono:
		return 1
	case AudioStereo:
		return 2
	default:
		return 0
	}
}

type SampleFormat string

const (
	SampleFloat32 SampleFormat = "float32"
	SamplePCM16   SampleFormat = "pcm16"
)

// Duration is a time.Duration that reads and writes as "600s" style text.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type TimeoutConfig struct {
	DefaultPort Duration `toml:"default_port" env:"SIMBRIDGE_TIMEOUT_DEFAULT_PORT"`
	OtherPort   Duration `toml:"other_port" env:"SIMBRIDGE_TIMEOUT_OTHER_PORT"`
}

type AudioConfig struct {
	Mode          AudioMode    `toml:"mode" env:"SIMBRIDGE_AUDIO_MODE"`
	Format        SampleFormat `toml:"format" env:"SIMBRIDGE_AUDIO_FORMAT"`
	SampleRate    int          `toml:"sample_rate" env:"SIMBRIDGE_AUDIO_SAMPLE_RATE"`
	BufferSamples int          `toml:"buffer_samples" env:"SIMBRIDGE_AUDIO_BUFFER_SAMPLES"`
	ToneHz        float64      `toml:"tone_hz" env:"SIMBRIDGE_AUDIO_TONE_HZ"`
}

type RenderConfig struct {
	Enabled bool `toml:"enabled" env:"SIMBRIDGE_RENDER_ENABLED"`
	Width   int  `toml:"width" env:"SIMBRIDGE_RENDER_WIDTH"`
	Height  int  `toml:"height" env:"SIMBRIDGE_RENDER_HEIGHT"`
}

type AdminConfig struct {
	Listen string `toml:"listen" env:"SIMBRIDGE_ADMIN_LISTEN"`
}

// SimConfig drives the headless host that stands in for the engine.
type SimConfig struct {
	Environment  string `toml:"environment" env:"SIMBRIDGE_SIM_ENVIRONMENT"`
	MaxTicks     int    `toml:"max_ticks" env:"SIMBRIDGE_SIM_MAX_TICKS"`
	Realtime     bool   `toml:"realtime" env:"SIMBRIDGE_SIM_REALTIME"`
	EpisodeSteps int    `toml:"episode_steps" env:"SIMBRIDGE_SIM_EPISODE_STEPS"`
	Seed         int64  `toml:"seed" env:"SIMBRIDGE_SIM_SEED"`
}

// Config is the complete runtime configuration of one simbridge process.
type Config struct {
	Enabled   bool          `toml:"enabled" env:"SIMBRIDGE_ENABLED"`
	Host      string        `toml:"host" env:"SIMBRIDGE_HOST"`
	Port      int           `toml:"port" env:"SIMBRIDGE_PORT"`
	Transport string        `toml:"transport" env:"SIMBRIDGE_TRANSPORT"`
	Timeout   TimeoutConfig `toml:"timeout"`
	Audio     AudioConfig   `toml:"audio"`
	Render    RenderConfig  `toml:"render"`
	Admin     AdminConfig   `toml:"admin"`
	Sim       SimConfig     `toml:"sim"`
}

func Default() Config {
	policy := bridge.DefaultTimeoutPolicy()
	return Config{
		Enabled:   false,
		Host:      "127.0.0.1",
		Port:      bridge.DefaultPort,
		Transport: string(transport.KindZMQ),
		Timeout: TimeoutConfig{
			DefaultPort: Duration(policy.DefaultPortTimeout),
			OtherPort:   Duration(policy.OtherPortTimeout),
		},
		Audio: AudioConfig{
			Mode:          AudioNone,
			Format:        SampleFloat32,
			SampleRate:    44100,
			BufferSamples: 44100,
			ToneHz:        440,
		},
		Render: RenderConfig{
			Enabled: true,
			Width:   120,
			Height:  80,
		},
		Sim: SimConfig{
			Environment:  "reach",
			EpisodeSteps: 500,
			Seed:         1,
		},
	}
}

// TimeoutPolicy returns the receive timeout policy with configured overrides.
func (c Config) TimeoutPolicy() bridge.TimeoutPolicy {
	return bridge.TimeoutPolicy{
		DefaultPort:        bridge.DefaultPort,
		DefaultPortTimeout: c.Timeout.DefaultPort.Std(),
		OtherPortTimeout:   c.Timeout.OtherPort.Std(),
	}
}

// ChannelConfig builds the transport configuration for the bound endpoint.
func (c Config) ChannelConfig() (transport.Config, error) {
	kind, err := transport.ParseKind(c.Transport)
	if err != nil {
		return transport.Config{}, err
	}
	cfg := transport.DefaultConfig()
	cfg.Kind = kind
	cfg.Address = transport.Address(c.Host, c.Port)
	cfg.Timeout = c.TimeoutPolicy().For(c.Port)
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Port)
	}
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: host is required", ErrInvalid)
	}
	if _, err := transport.ParseKind(c.Transport); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.TimeoutPolicy().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Audio.Mode {
	case AudioNone, AudioMono, AudioStereo:
	default:
		return fmt.Errorf("%w: audio.mode %q", ErrInvalid, c.Audio.Mode)
	}
	switch c.Audio.Format {
	case SampleFloat32, SamplePCM16:
	default:
		return fmt.Errorf("%w: audio.format %q", ErrInvalid, c.Audio.Format)
	}
	if c.Audio.Mode != AudioNone {
		if c.Audio.SampleRate <= 0 || c.Audio.BufferSamples <= 0 {
			return fmt.Errorf("%w: audio sample_rate and buffer_samples must be positive", ErrInvalid)
		}
	}
	if c.Render.Enabled && (c.Render.Width <= 0 || c.Render.Height <= 0) {
		return fmt.Errorf("%w: render size %dx%d", ErrInvalid, c.Render.Width, c.Render.Height)
	}
	if c.Sim.MaxTicks < 0 {
		return fmt.Errorf("%w: sim.max_ticks must not be negative", ErrInvalid)
	}
	if c.Sim.EpisodeSteps <= 0 {
		return fmt.Errorf("%w: sim.episode_steps must be positive", ErrInvalid)
	}
	if listen := strings.TrimSpace(c.Admin.Listen); listen != "" {
		if _, port, err := net.SplitHostPort(listen); err != nil {
			return fmt.Errorf("%w: admin.listen %q: %v", ErrInvalid, listen, err)
		} else if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("%w: admin.listen port %q", ErrInvalid, port)
		}
	}
	return nil
}
