package transport

import "errors"

var (
	ErrTimeout       = errors.New("transport: receive timeout")
	ErrChannel       = errors.New("transport: channel failure")
	ErrClosed        = errors.New("transport: channel closed")
	ErrAlternation   = errors.New("transport: request/reply alternation violated")
	ErrUnknownKind   = errors.New("transport: unknown kind")
	ErrInvalidConfig = errors.New("transport: invalid config")
)
