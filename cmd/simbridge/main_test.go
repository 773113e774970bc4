package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/simbridge/internal/config"
	"github.com/danmuck/simbridge/internal/protocol"
	"github.com/danmuck/simbridge/internal/testutil/testlog"
	"github.com/danmuck/simbridge/internal/transport"
)

func TestLoadFileConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadFileConfig("ex.config.toml", config.Default())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Enabled {
		t.Fatalf("expected bridge enabled")
	}
	if cfg.Port != 6100 || cfg.Host != "*" || cfg.Transport != "tcp" {
		t.Fatalf("unexpected endpoint: %s %s:%d", cfg.Transport, cfg.Host, cfg.Port)
	}
	if cfg.Timeout.DefaultPort.Std() != 15*time.Minute || cfg.Timeout.OtherPort.Std() != 45*time.Second {
		t.Fatalf("unexpected timeouts: %+v", cfg.Timeout)
	}
	if cfg.Audio.Mode != config.AudioStereo || cfg.Audio.Format != config.SamplePCM16 {
		t.Fatalf("unexpected audio: %+v", cfg.Audio)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Fatalf("undefined sample_rate should keep default, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.BufferSamples != 2048 {
		t.Fatalf("unexpected buffer samples: %d", cfg.Audio.BufferSamples)
	}
	if !cfg.Render.Enabled || cfg.Render.Width != 160 || cfg.Render.Height != 96 {
		t.Fatalf("unexpected render: %+v", cfg.Render)
	}
	if cfg.Admin.Listen != "127.0.0.1:7010" {
		t.Fatalf("unexpected admin listen: %q", cfg.Admin.Listen)
	}
	if cfg.Sim.MaxTicks != 10000 || cfg.Sim.EpisodeSteps != 250 || cfg.Sim.Seed != 1 {
		t.Fatalf("unexpected sim: %+v", cfg.Sim)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("example config invalid: %v", err)
	}
}

func TestLoadFileConfigRejectsUnknownKeys(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("prot = 5555\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadFileConfig(path, config.Default()); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestLoadFileConfigRejectsBadDuration(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[timeout]\nother_port = \"soon\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadFileConfig(path, config.Default()); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	testlog.Start(t)
	t.Setenv("SIMBRIDGE_PORT", "6200")
	t.Setenv("SIMBRIDGE_AUDIO_MODE", "mono")

	opts := &rootOptions{configPath: "ex.config.toml"}
	cfg, err := resolveConfig(opts)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Port != 6200 || cfg.Audio.Mode != config.AudioMono {
		t.Fatalf("env should override file: port=%d audio=%s", cfg.Port, cfg.Audio.Mode)
	}
	if cfg.Transport != "tcp" {
		t.Fatalf("file value lost: %q", cfg.Transport)
	}

	cmd := newServeCommand(opts)
	if err := cmd.ParseFlags([]string{"--port", "6300", "--transport", "zmq"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	flags := &serveFlags{port: 6300, transport: "zmq"}
	cfg = flags.apply(cmd, cfg)
	if cfg.Port != 6300 || cfg.Transport != "zmq" {
		t.Fatalf("flags should win: port=%d transport=%s", cfg.Port, cfg.Transport)
	}
	if cfg.Admin.Listen != "127.0.0.1:7010" {
		t.Fatalf("unset flag overrode config: %q", cfg.Admin.Listen)
	}
}

func TestExitCodes(t *testing.T) {
	testlog.Start(t)
	if got := exitCode(fmt.Errorf("wrapped: %w", transport.ErrTimeout)); got != exitTimeout {
		t.Fatalf("timeout exit code = %d", got)
	}
	if got := exitCode(errors.New("boom")); got != exitFatal {
		t.Fatalf("fatal exit code = %d", got)
	}
}

func TestConfigInitWritesTemplate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "simbridge.toml")
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	cfg, err := loadFileConfig(path, config.Default())
	if err != nil {
		t.Fatalf("load written template: %v", err)
	}
	if cfg != config.Default() {
		t.Fatalf("template does not round-trip to defaults: %+v", cfg)
	}
	if !strings.Contains(out.String(), path) {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestFormatLogDictSortsKeys(t *testing.T) {
	testlog.Start(t)
	got := formatLogDict(protocol.LogDict{
		"hit":      protocol.Bool(false),
		"distance": protocol.Number(0.5),
		"episode":  protocol.Number(2),
	})
	if got != "distance=0.5 episode=2 hit=false" {
		t.Fatalf("unexpected log text: %q", got)
	}
}
