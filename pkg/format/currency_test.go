package format

import (
	"math"
	"testing"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/mathutil"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"Zero", 0, "£0.00"},
		{"Small", 12.5, "£12.50"},
		{"Thousands", 1234.56, "£1,234.56"},
		{"Millions", 1234567.891, "£1,234,567.89"},
		{"Negative", -53000, "-£53,000.00"},
		{"Negative rounds to zero", -0.001, "£0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.amount); got != tt.expected {
				t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestNumericCurrency(t *testing.T) {
	if got := NumericCurrency(-1234.5); got != "-1,234.50" {
		t.Errorf("NumericCurrency() = %q", got)
	}
}

func TestPercentAndMultiple(t *testing.T) {
	if got := Percent(0.1234); got != "12.34%" {
		t.Errorf("Percent() = %q", got)
	}
	if got := Percent(math.NaN()); got != "n/a" {
		t.Errorf("Percent(NaN) = %q", got)
	}
	if got := Multiple(mathutil.Ratio(1.849)); got != "1.85x" {
		t.Errorf("Multiple() = %q", got)
	}
	if got := Multiple(mathutil.Unbounded); got != "n/a" {
		t.Errorf("Multiple(Unbounded) = %q", got)
	}
	if got := RatioPercent(mathutil.Ratio(0.75)); got != "75.00%" {
		t.Errorf("RatioPercent() = %q", got)
	}
}
