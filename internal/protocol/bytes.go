package protocol

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// ByteArray is a byte buffer carried as an array of byte values on the wire.
// Decoding also accepts a base64 string.
type ByteArray []byte

func (b ByteArray) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	out := make([]byte, 0, 2+len(b)*4)
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	out = append(out, ']')
	return out, nil
}

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}
	if len(data) == 0 {
		return fmt.Errorf("empty byte array")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("invalid base64: %w", err)
		}
		*b = raw
		return nil
	case '[':
		var vals []int
		if err := json.Unmarshal(data, &vals); err != nil {
			return err
		}
		out := make([]byte, len(vals))
		for i, v := range vals {
			if v < 0 || v > 255 {
				return fmt.Errorf("byte %d out of range: %d", i, v)
			}
			out[i] = byte(v)
		}
		*b = out
		return nil
	default:
		return fmt.Errorf("want array or base64 string, got %.16s", data)
	}
}
