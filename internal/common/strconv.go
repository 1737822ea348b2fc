package common

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawInput captures a form field exactly as the client typed it. It accepts a
// JSON string, number or null so validation stays with the domain layer.
type RawInput string

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RawInput(s)
		return nil
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*r = RawInput(n.String())
		return nil
	default:
		return fmt.Errorf("unsupported input value %s", string(data))
	}
}

// String returns the raw text.
func (r RawInput) String() string {
	return string(r)
}
