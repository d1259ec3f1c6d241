package api

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Temperature accepts a JSON number or a numeric string. Anything else decodes as unset,
// which selects the default temperature instead of rejecting the request.
type Temperature struct {
	Value float32
	Valid bool
}

func (t *Temperature) UnmarshalJSON(b []byte) error {
	*t = Temperature{}

	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if n, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return nil
		}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	t.Value, t.Valid = float32(n), true
	return nil
}

func (t Temperature) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// Ptr is nil when no usable temperature was sent.
func (t Temperature) Ptr() *float32 {
	if !t.Valid {
		return nil
	}
	v := t.Value
	return &v
}
