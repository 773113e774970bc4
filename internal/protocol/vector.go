package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Vec3 is a position as [x, y, z].
type Vec3 [3]float32

// Quat is a rotation as [x, y, z, w].
type Quat [4]float32

// IdentityQuat is the no-rotation quaternion.
var IdentityQuat = Quat{0, 0, 0, 1}

type xyzw struct {
	X *float32 `json:"x"`
	Y *float32 `json:"y"`
	Z *float32 `json:"z"`
	W *float32 `json:"w"`
}

func (v *Vec3) UnmarshalJSON(data []byte) error {
	vals, err := decodeComponents(data, 3)
	if err != nil {
		return err
	}
	copy(v[:], vals)
	return nil
}

func (q *Quat) UnmarshalJSON(data []byte) error {
	vals, err := decodeComponents(data, 4)
	if err != nil {
		return err
	}
	copy(q[:], vals)
	return nil
}

// decodeComponents accepts either the array form or the {x,y,z[,w]} object form.
func decodeComponents(data []byte, n int) ([]float32, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty vector")
	}
	switch data[0] {
	case '[':
		var vals []float32
		if err := json.Unmarshal(data, &vals); err != nil {
			return nil, err
		}
		if len(vals) != n {
			return nil, fmt.Errorf("want %d components, got %d", n, len(vals))
		}
		return vals, nil
	case '{':
		var obj xyzw
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		parts := []*float32{obj.X, obj.Y, obj.Z, obj.W}[:n]
		vals := make([]float32, n)
		for i, p := range parts {
			if p == nil {
				return nil, fmt.Errorf("missing component %q", "xyzw"[i:i+1])
			}
			vals[i] = *p
		}
		return vals, nil
	default:
		return nil, fmt.Errorf("want array or object, got %.16s", data)
	}
}
