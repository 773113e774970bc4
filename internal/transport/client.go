package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Client is the controller side of a session: each Request sends one
// message and waits for its reply.
type Client struct {
	cfg       Config
	sock      socket
	closed    atomic.Bool
	closeOnce sync.Once
}

// Dial connects to a listening Channel.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sock, err := dialSocket(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s %s: %v", ErrChannel, cfg.Kind, cfg.Address, err)
	}
	return &Client{cfg: cfg, sock: sock}, nil
}

func (c *Client) Request(ctx context.Context, payload string) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	sctx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
	err := c.sock.send(sctx, []byte(payload))
	cancel()
	if err != nil {
		_ = c.Close()
		return "", fmt.Errorf("%w: send: %v", ErrChannel, err)
	}

	rctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	reply, err := c.sock.recv(rctx)
	if err != nil {
		_ = c.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: no reply within %s", ErrTimeout, c.cfg.Timeout)
		}
		return "", fmt.Errorf("%w: receive: %v", ErrChannel, err)
	}
	return string(reply), nil
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.sock.close()
	})
	return nil
}
