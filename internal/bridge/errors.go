package bridge

import (
	"errors"
	"fmt"

	"github.com/danmuck/simbridge/internal/protocol"
	"github.com/danmuck/simbridge/internal/transport"
)

var (
	ErrClosed        = errors.New("bridge: closed")
	ErrNotNegotiated = errors.New("bridge: handshake not completed")
	ErrNegotiated    = errors.New("bridge: handshake already completed")
	ErrReplyOwed     = errors.New("bridge: previous request not answered")
	ErrNoReplyOwed   = errors.New("bridge: no request to answer")
)

// FatalError ends the session. The bridge has already released its channel
// by the time one is returned.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("bridge: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Cause classifies a fatal error for logs, metrics and exit codes.
func Cause(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, transport.ErrTimeout):
		return "timeout"
	case errors.Is(err, protocol.ErrDecode):
		return "decode"
	case errors.Is(err, protocol.ErrEncode):
		return "encode"
	case errors.Is(err, transport.ErrClosed), errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "channel"
	}
}
