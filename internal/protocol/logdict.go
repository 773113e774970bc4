package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// LogKind is the closed set of scalar kinds a log value may hold.
type LogKind uint8

const (
	LogNumber LogKind = iota + 1
	LogString
	LogBool
)

func (k LogKind) String() string {
	switch k {
	case LogNumber:
		return "number"
	case LogString:
		return "string"
	case LogBool:
		return "bool"
	default:
		return "invalid"
	}
}

// LogValue is one scalar in a LogDict.
type LogValue struct {
	kind LogKind
	num  float64
	str  string
	b    bool
}

func Number(v float64) LogValue { return LogValue{kind: LogNumber, num: v} }
func String(v string) LogValue  { return LogValue{kind: LogString, str: v} }
func Bool(v bool) LogValue      { return LogValue{kind: LogBool, b: v} }

func (v LogValue) Kind() LogKind { return v.kind }

func (v LogValue) Float() (float64, bool) { return v.num, v.kind == LogNumber }
func (v LogValue) Str() (string, bool)    { return v.str, v.kind == LogString }
func (v LogValue) Bool() (bool, bool)     { return v.b, v.kind == LogBool }

// Text renders the value the way a log line would show it.
func (v LogValue) Text() string {
	switch v.kind {
	case LogNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case LogString:
		return v.str
	case LogBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

func (v LogValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case LogNumber:
		return json.Marshal(v.num)
	case LogString:
		return json.Marshal(v.str)
	case LogBool:
		return json.Marshal(v.b)
	default:
		return nil, fmt.Errorf("%w: log value has no kind", ErrEncode)
	}
}

func (v *LogValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty log value")
	}
	switch {
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = Bool(data[0] == 't')
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = Number(f)
	default:
		return fmt.Errorf("log value must be number, string or bool, got %.16s", data)
	}
	return nil
}

// LogDict is a string-keyed map of scalar diagnostics.
//
// On the wire it is a JSON object serialized to a string and embedded as the
// value of the observation's logDict field.
type LogDict map[string]LogValue

func (d LogDict) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	inner, err := json.Marshal(map[string]LogValue(d))
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(inner))
}

func (d *LogDict) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		data = bytes.TrimSpace([]byte(inner))
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			*d = nil
			return nil
		}
	}
	var m map[string]LogValue
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		*d = nil
		return nil
	}
	*d = LogDict(m)
	return nil
}
