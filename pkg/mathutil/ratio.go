package mathutil

import (
	"encoding/json"
	"math"
	"strconv"
)

// Ratio is a float64 that may be undefined. Non-finite values (a coverage
// ratio with no debt service, an LTV against a non-positive value) marshal
// as JSON null and unmarshal back to +Inf.
type Ratio float64

// Unbounded is the in-memory sentinel for an undefined ratio.
var Unbounded = Ratio(math.Inf(1))

// Defined reports whether r holds a finite value.
func (r Ratio) Defined() bool {
	return IsFinite(float64(r))
}

// Float returns r as a float64.
func (r Ratio) Float() float64 {
	return float64(r)
}

// String formats r, using "n/a" when undefined.
func (r Ratio) String() string {
	if !r.Defined() {
		return "n/a"
	}
	return strconv.FormatFloat(float64(r), 'f', 4, 64)
}

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Unbounded
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ratio(v)
	return nil
}
