package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrDecode = errors.New("protocol: decode failed")
	ErrEncode = errors.New("protocol: encode failed")
)

// DecodeError reports which message kind and field failed to decode.
type DecodeError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("protocol: decode %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("protocol: decode %s field %q: %s", e.Kind, e.Field, e.Reason)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func decodeErr(kind Kind, field, format string, args ...any) error {
	return &DecodeError{Kind: kind, Field: field, Reason: fmt.Sprintf(format, args...)}
}
