package protocol

import (
	"bytes"
	"encoding/json"
)

// DecodeHandshake parses and validates the first message of a session.
func DecodeHandshake(text string) (HandshakeOptions, error) {
	var h HandshakeOptions
	err := decodeFields(KindHandshake, text, handshakeFields, map[string]any{
		"sampleFrequency": &h.SampleFrequency,
		"timeScale":       &h.TimeScale,
		"timestep":        &h.Timestep,
		"fixedDeltaTime":  &h.FixedDeltaTime,
	})
	if err != nil {
		return HandshakeOptions{}, err
	}
	if err := h.Validate(); err != nil {
		return HandshakeOptions{}, err
	}
	return h, nil
}

// DecodeControl parses one control message.
func DecodeControl(text string) (ControlMessage, error) {
	var c ControlMessage
	err := decodeFields(KindControl, text, controlFields, map[string]any{
		"reset":                   &c.Reset,
		"isFinished":              &c.IsFinished,
		"quitApplication":         &c.QuitApplication,
		"headsetPosition":         &c.HeadsetPosition,
		"headsetRotation":         &c.HeadsetRotation,
		"leftControllerPosition":  &c.LeftControllerPosition,
		"leftControllerRotation":  &c.LeftControllerRotation,
		"rightControllerPosition": &c.RightControllerPosition,
		"rightControllerRotation": &c.RightControllerRotation,
		"currentTimestep":         &c.CurrentTimestep,
		"nextTimestep":            &c.NextTimestep,
	})
	if err != nil {
		return ControlMessage{}, err
	}
	return c, nil
}

// DecodeObservation parses a simulator reply; used by controller-side clients.
func DecodeObservation(text string) (Observation, error) {
	var o Observation
	err := decodeFields(KindObservation, text, observationFields, map[string]any{
		"isFinished":  &o.IsFinished,
		"reward":      &o.Reward,
		"image":       &o.Image,
		"audio":       &o.Audio,
		"timeFeature": &o.TimeFeature,
		"logDict":     &o.LogDict,
	})
	if err != nil {
		return Observation{}, err
	}
	return o, nil
}

// decodeFields requires every schema key; unknown keys are ignored.
func decodeFields(kind Kind, text string, specs []fieldSpec, targets map[string]any) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return decodeErr(kind, "", "%v", err)
	}
	if raw == nil {
		return decodeErr(kind, "", "message is not an object")
	}
	for _, spec := range specs {
		value, ok := raw[spec.name]
		if !ok {
			return decodeErr(kind, spec.name, "missing")
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			if !spec.nullable {
				return decodeErr(kind, spec.name, "null not allowed")
			}
			continue
		}
		if err := json.Unmarshal(value, targets[spec.name]); err != nil {
			return decodeErr(kind, spec.name, "%v", err)
		}
	}
	return nil
}
