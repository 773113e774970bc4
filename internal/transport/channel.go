package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/simbridge/internal/logging"
	"github.com/rs/zerolog"
)

// Channel is the simulator side of one request/reply session.
//
// Every Send answers the most recent Receive; a second Receive before the
// reply, or a Send with no pending request, fails with ErrAlternation and
// leaves the socket untouched. Receive, Send and Close are meant for a
// single caller; Close alone may also be called from another goroutine.
type Channel struct {
	cfg       Config
	sock      socket
	log       zerolog.Logger
	owes      bool
	closed    atomic.Bool
	closeOnce sync.Once
}

// Listen binds cfg.Address and returns a channel waiting for its first request.
func Listen(cfg Config) (*Channel, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sock, err := listenSocket(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: bind %s %s: %v", ErrChannel, cfg.Kind, cfg.Address, err)
	}
	c := &Channel{
		cfg:  cfg,
		sock: sock,
		log:  logging.Component("transport").With().Str("kind", string(cfg.Kind)).Logger(),
	}
	c.log.Info().Str("addr", sock.addr()).Dur("timeout", cfg.Timeout).Msg("channel listening")
	return c, nil
}

func (c *Channel) Addr() string {
	return c.sock.addr()
}

// Timeout is the per-receive wait after defaults are applied.
func (c *Channel) Timeout() time.Duration {
	return c.cfg.Timeout
}

// Owes reports whether a request has been received and not yet answered.
func (c *Channel) Owes() bool {
	return c.owes
}

func (c *Channel) Closed() bool {
	return c.closed.Load()
}

// Receive blocks for the next request for at most the configured timeout.
// Any failure closes the channel.
func (c *Channel) Receive(ctx context.Context) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	if c.owes {
		return "", fmt.Errorf("%w: receive while a reply is owed", ErrAlternation)
	}
	rctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := c.sock.recv(rctx)
	if err != nil {
		wasClosed := c.closed.Load()
		_ = c.Close()
		switch {
		case wasClosed:
			return "", ErrClosed
		case errors.Is(err, context.DeadlineExceeded):
			c.log.Error().Dur("timeout", c.cfg.Timeout).Msg("no request received before timeout")
			return "", fmt.Errorf("%w: no request within %s", ErrTimeout, c.cfg.Timeout)
		case errors.Is(err, context.Canceled):
			return "", fmt.Errorf("%w: %v", ErrClosed, err)
		case errors.Is(err, ErrAlternation):
			return "", err
		default:
			return "", fmt.Errorf("%w: receive: %v", ErrChannel, err)
		}
	}
	c.owes = true
	c.log.Trace().Int("bytes", len(payload)).Msg("request received")
	return string(payload), nil
}

// Send answers the pending request.
func (c *Channel) Send(payload string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.owes {
		return fmt.Errorf("%w: send without a pending request", ErrAlternation)
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.SendTimeout)
	defer cancel()
	if err := c.sock.send(ctx, []byte(payload)); err != nil {
		_ = c.Close()
		return fmt.Errorf("%w: send: %v", ErrChannel, err)
	}
	c.owes = false
	c.log.Trace().Int("bytes", len(payload)).Msg("reply sent")
	return nil
}

// Close releases the socket. It is safe to call any number of times and
// always returns nil.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if err := c.sock.close(); err != nil {
			c.log.Debug().Err(err).Msg("socket close")
		}
		c.log.Info().Msg("channel closed")
	})
	return nil
}
