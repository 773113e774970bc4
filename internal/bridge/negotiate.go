package bridge

import (
	"context"

	"github.com/danmuck/simbridge/internal/protocol"
)

// Channel is the request/reply surface the bridge drives.
type Channel interface {
	Receive(ctx context.Context) (string, error)
	Send(payload string) error
	Close() error
}

// Negotiate consumes the session's first request as HandshakeOptions and
// answers it with the empty acknowledgement observation.
func Negotiate(ctx context.Context, ch Channel) (protocol.HandshakeOptions, error) {
	text, err := ch.Receive(ctx)
	if err != nil {
		return protocol.HandshakeOptions{}, err
	}
	opts, err := protocol.DecodeHandshake(text)
	if err != nil {
		return protocol.HandshakeOptions{}, err
	}
	ack, err := protocol.EncodeObservation(protocol.HandshakeAck())
	if err != nil {
		return protocol.HandshakeOptions{}, err
	}
	if err := ch.Send(ack); err != nil {
		return protocol.HandshakeOptions{}, err
	}
	return opts, nil
}
