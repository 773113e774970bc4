package host

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/simbridge/internal/bridge"
	"github.com/danmuck/simbridge/internal/config"
	"github.com/danmuck/simbridge/internal/protocol"
	"github.com/danmuck/simbridge/internal/testutil/testlog"
	"github.com/danmuck/simbridge/internal/transport"
	"github.com/stretchr/testify/require"
)

var kinds = []transport.Kind{transport.KindZMQ, transport.KindTCP}

func runnerConfig(kind transport.Kind) config.Config {
	cfg := config.Default()
	cfg.Enabled = true
	cfg.Port = 0
	cfg.Transport = string(kind)
	cfg.Timeout.DefaultPort = config.Duration(10 * time.Second)
	cfg.Timeout.OtherPort = config.Duration(3 * time.Second)
	cfg.Audio.Mode = config.AudioStereo
	cfg.Audio.BufferSamples = 16
	return cfg
}

func startRunner(t *testing.T, cfg config.Config) (*Runner, <-chan error) {
	t.Helper()
	r := NewRunner(cfg)
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	select {
	case <-r.Listening():
	case <-time.After(2 * time.Second):
		t.Fatalf("runner never bound")
	}
	return r, done
}

func dialRunner(t *testing.T, r *Runner, kind transport.Kind) *transport.Client {
	t.Helper()
	cfg := transport.DefaultConfig()
	cfg.Kind = kind
	cfg.Address = r.Addr()
	cfg.Timeout = 2 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := transport.Dial(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func request(t *testing.T, client *transport.Client, text string) protocol.Observation {
	t.Helper()
	reply, err := client.Request(context.Background(), text)
	require.NoError(t, err)
	obs, err := protocol.DecodeObservation(reply)
	require.NoError(t, err)
	return obs
}

func controlText(t *testing.T, next float64, quit bool) string {
	t.Helper()
	text, err := protocol.EncodeControl(protocol.ControlMessage{
		QuitApplication:         quit,
		HeadsetRotation:         protocol.IdentityQuat,
		LeftControllerRotation:  protocol.IdentityQuat,
		RightControllerPosition: protocol.Vec3{0.1, 1.2, 0.3},
		RightControllerRotation: protocol.IdentityQuat,
		NextTimestep:            next,
	})
	require.NoError(t, err)
	return text
}

func TestRunnerServesSessionUntilQuit(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			testlog.Start(t)
			r, done := startRunner(t, runnerConfig(kind))
			client := dialRunner(t, r, kind)

			ack := request(t, client, `{"sampleFrequency":50,"timeScale":1,"timestep":0.02,"fixedDeltaTime":0}`)
			require.Equal(t, -1.0, ack.TimeFeature)
			require.Nil(t, ack.Image)

			for i := 1; i <= 3; i++ {
				obs := request(t, client, controlText(t, float64(i)*0.1, false))
				require.NotEmpty(t, obs.Image)
				require.Len(t, obs.Audio, 32)
				require.Less(t, obs.Reward, 0.0)
				_, ok := obs.LogDict["distance"]
				require.True(t, ok)
			}
			last := request(t, client, controlText(t, 0.4, true))
			require.NotNil(t, last.LogDict)

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(3 * time.Second):
				t.Fatalf("runner did not stop after quit")
			}
			info, ok := r.Session()
			require.True(t, ok)
			require.Equal(t, bridge.StateClosed.String(), info.State)
			require.Equal(t, "quit", info.CloseReason)
			require.EqualValues(t, 5, info.Replies)
			require.False(t, r.Ready())
			// With a 0.02 step and controls every 0.1, most ticks are skipped.
			require.Greater(t, info.Ticks, info.DueTicks)
		})
	}
}

func TestRunnerPassiveWhenDisabled(t *testing.T) {
	testlog.Start(t)
	cfg := runnerConfig(transport.KindTCP)
	cfg.Enabled = false
	r := NewRunner(cfg)
	require.NoError(t, r.Run(context.Background()))
	_, ok := r.Session()
	require.False(t, ok)
	<-r.Listening()
}

func TestRunnerCancelStopsWaitingSession(t *testing.T) {
	testlog.Start(t)
	r := NewRunner(runnerConfig(transport.KindZMQ))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	<-r.Listening()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("runner did not stop after cancel")
	}
}

func TestRunnerTimeoutIsFatal(t *testing.T) {
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			testlog.Start(t)
			cfg := runnerConfig(kind)
			cfg.Timeout.OtherPort = config.Duration(150 * time.Millisecond)
			r, done := startRunner(t, cfg)

			select {
			case err := <-done:
				var fatal *bridge.FatalError
				require.ErrorAs(t, err, &fatal)
				require.ErrorIs(t, err, transport.ErrTimeout)
			case <-time.After(3 * time.Second):
				t.Fatalf("runner did not time out")
			}
			info, ok := r.Session()
			require.True(t, ok)
			require.Equal(t, "timeout", info.CloseReason)
		})
	}
}
