package mathutil

import (
	"encoding/json"
	"math"
	"testing"
)

func TestRatioJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    Ratio
		expected string
	}{
		{"Finite", Ratio(1.25), "1.25"},
		{"Positive infinity", Unbounded, "null"},
		{"NaN", Ratio(math.NaN()), "null"},
		{"Negative", Ratio(-0.5), "-0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.input)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("Marshal() = %s, expected %s", data, tt.expected)
			}
		})
	}
}

func TestRatioUnmarshalNull(t *testing.T) {
	var payload struct {
		DSCR Ratio `json:"dscr"`
	}
	if err := json.Unmarshal([]byte(`{"dscr":null}`), &payload); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if payload.DSCR.Defined() {
		t.Errorf("expected undefined ratio, got %v", payload.DSCR)
	}
	if payload.DSCR.String() != "n/a" {
		t.Errorf("String() = %q, expected n/a", payload.DSCR.String())
	}
}
