package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/danmuck/simbridge/internal/protocol/frame"
)

// tcpServer accepts exactly one peer and then stops listening.
type tcpServer struct {
	ln          net.Listener
	conn        net.Conn
	limits      frame.Limits
	sendTimeout time.Duration
	lastSeq     uint64
}

func listenTCP(cfg Config) (*tcpServer, error) {
	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, err
	}
	return &tcpServer{ln: ln, limits: cfg.Limits, sendTimeout: cfg.SendTimeout}, nil
}

func (s *tcpServer) recv(ctx context.Context) ([]byte, error) {
	if s.conn == nil {
		conn, err := s.accept(ctx)
		if err != nil {
			return nil, err
		}
		s.conn = conn
		_ = s.ln.Close()
	}
	defer interruptRead(ctx, s.conn)()
	fr, err := frame.ReadFrame(s.conn, s.limits)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if fr.IsReply() {
		return nil, fmt.Errorf("%w: peer sent a reply frame", ErrAlternation)
	}
	s.lastSeq = fr.Header.Sequence
	return fr.Payload, nil
}

func (s *tcpServer) accept(ctx context.Context) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = s.ln.Close()
	})
	defer stop()
	conn, err := s.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return conn, nil
}

func (s *tcpServer) send(_ context.Context, payload []byte) error {
	if s.conn == nil {
		return ErrAlternation
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.sendTimeout))
	return frame.WriteFrame(s.conn, frame.Frame{
		Header:  frame.Header{Flags: frame.FlagIsReply, Sequence: s.lastSeq},
		Payload: payload,
	}, s.limits)
}

func (s *tcpServer) addr() string {
	return s.ln.Addr().String()
}

func (s *tcpServer) close() error {
	var err error
	if s.conn != nil {
		err = s.conn.Close()
	}
	if lnErr := s.ln.Close(); lnErr != nil && err == nil && !errors.Is(lnErr, net.ErrClosed) {
		err = lnErr
	}
	return err
}

// interruptRead unblocks a read on conn once ctx ends. The returned release
// func leaves conn with no read deadline, waiting out an interrupt that has
// already started so it cannot land on the next read.
func interruptRead(ctx context.Context, conn net.Conn) (release func()) {
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Unix(1, 0))
		close(fired)
	})
	return func() {
		if !stop() {
			<-fired
			_ = conn.SetReadDeadline(time.Time{})
		}
	}
}

// tcpClient is the controller side of the tcp kind.
type tcpClient struct {
	conn        net.Conn
	limits      frame.Limits
	sendTimeout time.Duration
	seq         uint64
}

func dialTCP(ctx context.Context, cfg Config) (*tcpClient, error) {
	addr := dialAddress(cfg.Address)
	var conn net.Conn
	err := redial(ctx, cfg, addr, func(ctx context.Context) error {
		dialer := net.Dialer{Timeout: cfg.DialTimeout}
		c, err := dialer.DialContext(ctx, "tcp", addr)
		conn = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return &tcpClient{conn: conn, limits: cfg.Limits, sendTimeout: cfg.SendTimeout}, nil
}

func (c *tcpClient) send(_ context.Context, payload []byte) error {
	c.seq++
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout))
	return frame.WriteFrame(c.conn, frame.Frame{
		Header:  frame.Header{Sequence: c.seq},
		Payload: payload,
	}, c.limits)
}

func (c *tcpClient) recv(ctx context.Context) ([]byte, error) {
	defer interruptRead(ctx, c.conn)()
	fr, err := frame.ReadFrame(c.conn, c.limits)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if !fr.IsReply() || fr.Header.Sequence != c.seq {
		return nil, fmt.Errorf("%w: reply seq=%d want=%d", ErrAlternation, fr.Header.Sequence, c.seq)
	}
	return fr.Payload, nil
}

func (c *tcpClient) addr() string {
	return c.conn.RemoteAddr().String()
}

func (c *tcpClient) close() error {
	return c.conn.Close()
}
