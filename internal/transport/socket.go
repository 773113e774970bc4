package transport

import "context"

// socket is the surface each transport kind provides to Channel and Client.
// recv must return ctx.Err() once ctx is done.
type socket interface {
	recv(ctx context.Context) ([]byte, error)
	send(ctx context.Context, payload []byte) error
	addr() string
	close() error
}

func listenSocket(cfg Config) (socket, error) {
	switch cfg.Kind {
	case KindZMQ:
		return listenZMQ(cfg)
	case KindTCP:
		return listenTCP(cfg)
	default:
		return nil, ErrUnknownKind
	}
}

func dialSocket(ctx context.Context, cfg Config) (socket, error) {
	switch cfg.Kind {
	case KindZMQ:
		return dialZMQ(ctx, cfg)
	case KindTCP:
		return dialTCP(ctx, cfg)
	default:
		return nil, ErrUnknownKind
	}
}
