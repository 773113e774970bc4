package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/simbridge/internal/protocol"
	"github.com/danmuck/simbridge/internal/testutil/testlog"
	"github.com/danmuck/simbridge/internal/transport"
	"github.com/stretchr/testify/require"
)

func socketConfig(kind transport.Kind, timeout time.Duration) transport.Config {
	cfg := transport.DefaultConfig()
	cfg.Kind = kind
	cfg.Address = "127.0.0.1:0"
	cfg.Timeout = timeout
	cfg.SendTimeout = time.Second
	cfg.DialTimeout = time.Second
	cfg.Backoff.Jitter = false
	return cfg
}

func listen(t *testing.T, cfg transport.Config) *transport.Channel {
	t.Helper()
	ch, err := transport.Listen(cfg)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func dial(t *testing.T, ch *transport.Channel, cfg transport.Config) *transport.Client {
	t.Helper()
	cfg.Address = ch.Addr()
	cfg.Timeout = 2 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := transport.Dial(ctx, cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type exchange struct {
	replies []string
	err     error
}

// drive runs a controller script on its own goroutine.
func drive(client *transport.Client, requests ...string) <-chan exchange {
	done := make(chan exchange, 1)
	go func() {
		var ex exchange
		for _, req := range requests {
			reply, err := client.Request(context.Background(), req)
			if err != nil {
				ex.err = err
				break
			}
			ex.replies = append(ex.replies, reply)
		}
		done <- ex
	}()
	return done
}

func TestHandshakeAckOverSocket(t *testing.T) {
	for _, kind := range []transport.Kind{transport.KindZMQ, transport.KindTCP} {
		t.Run(string(kind), func(t *testing.T) {
			testlog.Start(t)
			cfg := socketConfig(kind, 2*time.Second)
			ch := listen(t, cfg)
			client := dial(t, ch, cfg)
			done := drive(client, scenarioHandshake)

			b := New(ch)
			timing, err := b.Negotiate(context.Background())
			require.NoError(t, err)
			require.Equal(t, Timing{TargetStepRate: 50, TimeScale: 1, FixedStep: 0.01, MaxDeltaTime: 0.02}, timing)
			require.Equal(t, StateReady, b.State())

			ex := <-done
			require.NoError(t, ex.err)
			require.Len(t, ex.replies, 1)
			ack, err := protocol.DecodeObservation(ex.replies[0])
			require.NoError(t, err)
			require.Nil(t, ack.Image)
			require.Nil(t, ack.Audio)
			require.Nil(t, ack.LogDict)
			require.Equal(t, -1.0, ack.TimeFeature)
			require.False(t, ack.IsFinished)
		})
	}
}

func TestQuitOverSocketRepliesThenCloses(t *testing.T) {
	for _, kind := range []transport.Kind{transport.KindZMQ, transport.KindTCP} {
		t.Run(string(kind), func(t *testing.T) {
			testlog.Start(t)
			cfg := socketConfig(kind, 2*time.Second)
			ch := listen(t, cfg)
			client := dial(t, ch, cfg)
			quit := control(t, 0.02, func(m *protocol.ControlMessage) { m.QuitApplication = true })
			done := drive(client, scenarioHandshake, quit)

			b := New(ch)
			_, err := b.Negotiate(context.Background())
			require.NoError(t, err)
			out, err := b.Tick(context.Background(), 0)
			require.NoError(t, err)
			require.True(t, out.Quit)
			require.NoError(t, b.Publish(protocol.Observation{Reward: 1}))

			ex := <-done
			require.NoError(t, ex.err)
			require.Len(t, ex.replies, 2)
			require.True(t, b.Closed())
			require.True(t, ch.Closed())
		})
	}
}

func TestReceiveTimeoutIsFatal(t *testing.T) {
	for _, kind := range []transport.Kind{transport.KindZMQ, transport.KindTCP} {
		t.Run(string(kind), func(t *testing.T) {
			testlog.Start(t)
			cfg := socketConfig(kind, 200*time.Millisecond)
			ch := listen(t, cfg)
			client := dial(t, ch, cfg)
			done := drive(client, scenarioHandshake)

			b := New(ch)
			_, err := b.Negotiate(context.Background())
			require.NoError(t, err)
			require.NoError(t, (<-done).err)

			_, err = b.Tick(context.Background(), 0)
			var fatal *FatalError
			require.ErrorAs(t, err, &fatal)
			require.Equal(t, "receive", fatal.Op)
			if !errors.Is(err, transport.ErrTimeout) {
				t.Fatalf("expected transport.ErrTimeout, got %v", err)
			}
			require.Equal(t, "timeout", Cause(err))
			require.True(t, b.Closed())
			require.False(t, b.Owes())
			require.EqualValues(t, 1, b.Info().Replies)
			require.NoError(t, b.Shutdown())
		})
	}
}

func TestHandshakeTimeoutWithoutController(t *testing.T) {
	testlog.Start(t)
	ch := listen(t, socketConfig(transport.KindTCP, 150*time.Millisecond))
	b := New(ch)

	start := time.Now()
	_, err := b.Negotiate(context.Background())
	require.ErrorIs(t, err, transport.ErrTimeout)
	require.Less(t, time.Since(start), 2*time.Second)
	require.True(t, b.Closed())
}
