package protocol

import (
	"encoding/json"
	"fmt"
)

// EncodeObservation renders obs as one text frame. Non-finite numbers are
// replaced first; see SanitizeObservation.
func EncodeObservation(obs Observation) (string, error) {
	obs, _ = SanitizeObservation(obs)
	return encode(KindObservation, obs)
}

// EncodeHandshake renders the controller-side handshake.
func EncodeHandshake(opts HandshakeOptions) (string, error) {
	return encode(KindHandshake, opts)
}

// EncodeControl renders the controller-side control message.
func EncodeControl(msg ControlMessage) (string, error) {
	return encode(KindControl, msg)
}

func encode(kind Kind, v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrEncode, kind, err)
	}
	return string(payload), nil
}
