package pricing

import (
	"bytes"
	"encoding/json"
	"math"
)

// Measure is a number that may be unavailable, in the manner of
// sql.NullFloat64. Unavailable measures encode as JSON null.
type Measure struct {
	Value float64
	Valid bool
}

// Known returns an available measure.
func Known(v float64) Measure {
	return Measure{Value: v, Valid: true}
}

// Unknown is the unavailable measure.
var Unknown = Measure{}

// Or returns the value, or fallback when unavailable.
func (m Measure) Or(fallback float64) float64 {
	if !m.Valid {
		return fallback
	}
	return m.Value
}

// MarshalJSON implements json.Marshaler.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Measure) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Unknown
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Known(v)
	return nil
}
