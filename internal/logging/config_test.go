package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"off":     zerolog.Disabled,
		"trace":   zerolog.TraceLevel,
	}
	for raw, want := range cases {
		got, ok := parseLevel(raw)
		if !ok || got != want {
			t.Fatalf("parseLevel(%q) = %v,%v want %v", raw, got, ok, want)
		}
	}
	if _, ok := parseLevel("loud"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
	if _, ok := parseLevel(""); ok {
		t.Fatalf("expected empty level to be ignored")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogJSON, "true")
	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel {
		t.Fatalf("unexpected level: %v", cfg.Level)
	}
	if cfg.Timestamp {
		t.Fatalf("expected timestamp disabled")
	}
	if !cfg.JSON {
		t.Fatalf("expected json output")
	}
}

func TestNewJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: zerolog.InfoLevel, JSON: true, Out: &buf})
	logger.Debug().Msg("hidden")
	logger.Info().Str("session", "abc").Msg("handshake")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered: %s", out)
	}
	if !strings.Contains(out, `"session":"abc"`) || !strings.Contains(out, `"message":"handshake"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestConsoleLoggerWithoutTimestampOmitsTimePart(t *testing.T) {
	var buf bytes.Buffer
	cfg := defaultConfig(ProfileTest)
	cfg.Out = &buf
	logger := New(cfg)
	logger.Info().Str("kind", "zmq").Msg("channel listening")
	out := buf.String()
	if strings.Contains(out, "<nil>") {
		t.Fatalf("console line carries an empty timestamp: %q", out)
	}
	if !strings.HasPrefix(out, "INF") || !strings.Contains(out, "kind=zmq") {
		t.Fatalf("unexpected console line: %q", out)
	}
}

func TestComponentTagsGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = New(Config{Level: zerolog.InfoLevel, JSON: true, Out: &buf})

	logger := Component("bridge")
	logger.Info().Msg("handshake")
	if !strings.Contains(buf.String(), `"component":"bridge"`) {
		t.Fatalf("component field missing: %s", buf.String())
	}
}
