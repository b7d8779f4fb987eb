package network

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// MaxMessageSize bounds a single inbound frame.
const MaxMessageSize = 64 * 1024

var ErrEmptyType = errors.New("envelope has no type")

// Envelope is the JSON frame exchanged over the websocket in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Room string          `json:"room,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

func Encode(msgType string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type == "" {
		return Envelope{}, ErrEmptyType
	}
	return env, nil
}

// DecodePayload unmarshals env.Data into T. An empty payload yields the zero value.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return out, nil
	}
	err := json.Unmarshal(env.Data, &out)
	return out, err
}

// Int is a lenient integer: it accepts JSON numbers, numeric strings and
// booleans, and decodes anything else to zero with Set=false. Payload
// fields are coerced rather than rejected.
type Int struct {
	Value int
	Set   bool
}

func (i *Int) UnmarshalJSON(b []byte) error {
	*i = Int{}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		*i = Int{Value: clampToInt(v), Set: true}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			*i = Int{Value: clampToInt(f), Set: true}
		}
	case bool:
		if v {
			*i = Int{Value: 1, Set: true}
		} else {
			*i = Int{Value: 0, Set: true}
		}
	}
	return nil
}

func (i Int) MarshalJSON() ([]byte, error) {
	if !i.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(i.Value)), nil
}

// Ptr returns nil when the field was absent or malformed.
func (i Int) Ptr() *int {
	if !i.Set {
		return nil
	}
	v := i.Value
	return &v
}

// Bool is a lenient boolean accepting true/false, 0/1 and "true"/"false".
type Bool struct {
	Value bool
	Set   bool
}

func (b *Bool) UnmarshalJSON(data []byte) error {
	*b = Bool{}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch v := raw.(type) {
	case bool:
		*b = Bool{Value: v, Set: true}
	case float64:
		*b = Bool{Value: v != 0, Set: true}
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*b = Bool{Value: parsed, Set: true}
		}
	}
	return nil
}

func (b Bool) Ptr() *bool {
	if !b.Set {
		return nil
	}
	v := b.Value
	return &v
}

// String is a lenient string: numbers are rendered, other shapes become "".
type String string

func (s *String) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		*s = ""
		return nil
	}
	switch v := raw.(type) {
	case string:
		*s = String(v)
	case float64:
		*s = String(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		*s = ""
	}
	return nil
}

func clampToInt(f float64) int {
	const limit = 1 << 31
	if f > limit {
		return limit
	}
	if f < -limit {
		return -limit
	}
	return int(math.Trunc(f))
}
