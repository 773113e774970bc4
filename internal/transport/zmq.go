package transport

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"
)

type zmqSocket struct {
	sock   zmq4.Socket
	cancel context.CancelFunc
	ep     string
	linger time.Duration
	// lastSend is the UnixNano time of the most recent send. zmq4 hands a
	// message to a writer goroutine and returns before it is on the wire.
	lastSend atomic.Int64
}

type zmqResult struct {
	msg zmq4.Msg
	err error
}

func listenZMQ(cfg Config) (*zmqSocket, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewRep(ctx, zmq4.WithTimeout(cfg.SendTimeout))
	ep := zmqEndpoint(cfg.Address)
	if err := sock.Listen(ep); err != nil {
		cancel()
		_ = sock.Close()
		return nil, err
	}
	return &zmqSocket{sock: sock, cancel: cancel, ep: ep, linger: cfg.Linger}, nil
}

// dialZMQ turns off zmq4's fixed-interval redial and retries through
// redial so both kinds share one backoff schedule.
func dialZMQ(ctx context.Context, cfg Config) (*zmqSocket, error) {
	sockCtx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewReq(sockCtx,
		zmq4.WithTimeout(cfg.SendTimeout),
		zmq4.WithDialerTimeout(cfg.DialTimeout),
		zmq4.WithDialerMaxRetries(0),
	)
	addr := dialAddress(cfg.Address)
	ep := "tcp://" + addr
	err := redial(ctx, cfg, addr, func(context.Context) error {
		return sock.Dial(ep)
	})
	if err != nil {
		cancel()
		_ = sock.Close()
		return nil, err
	}
	return &zmqSocket{sock: sock, cancel: cancel, ep: ep, linger: cfg.Linger}, nil
}

// recv cancels the socket context when ctx ends first; zmq4 has no receive
// deadline, and cancellation is the only way to unblock Recv.
func (z *zmqSocket) recv(ctx context.Context) ([]byte, error) {
	done := make(chan zmqResult, 1)
	go func() {
		msg, err := z.sock.Recv()
		done <- zmqResult{msg: msg, err: err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return res.msg.Bytes(), nil
	case <-ctx.Done():
		z.cancel()
		return nil, ctx.Err()
	}
}

func (z *zmqSocket) send(_ context.Context, payload []byte) error {
	if err := z.sock.Send(zmq4.NewMsg(payload)); err != nil {
		return err
	}
	z.lastSend.Store(time.Now().UnixNano())
	return nil
}

func (z *zmqSocket) addr() string {
	if a := z.sock.Addr(); a != nil {
		return a.String()
	}
	return z.ep
}

// close holds the socket open until linger has passed since the last send,
// so a reply queued just before close still reaches the peer.
func (z *zmqSocket) close() error {
	if last := z.lastSend.Load(); last != 0 {
		if wait := z.linger - time.Since(time.Unix(0, last)); wait > 0 {
			time.Sleep(wait)
		}
	}
	z.cancel()
	return z.sock.Close()
}

// dialAddress maps a wildcard listen host to loopback for the dialing side.
func dialAddress(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "*", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
