// Package valuation computes terminal sale proceeds from trailing NOI.
package valuation

import (
	"fmt"
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
)

// Method selects how the asset is valued at exit.
type Method string

const (
	// CapRate values the asset as annual NOI divided by the exit cap rate.
	CapRate Method = "cap-rate"

	// NOIMultiple values the asset as annual NOI times a multiple.
	NOIMultiple Method = "noi-multiple"
)

// ParseMethod maps config spellings onto a Method.
func ParseMethod(value string) (Method, error) {
	switch value {
	case "", "cap-rate", "caprate", "cap_rate", "cap":
		return CapRate, nil
	case "noi-multiple", "multiple", "noi_multiple":
		return NOIMultiple, nil
	default:
		return "", fmt.Errorf("unknown exit method %q", value)
	}
}

// Exit describes how the asset is sold at the end of the hold.
type Exit struct {
	Method       Method  `json:"method"`
	CapRate      float64 `json:"capRate,omitempty"`
	Multiple     float64 `json:"multiple,omitempty"`
	CostFraction float64 `json:"costFraction"`
}

// Validate checks the parameter of the selected method and the exit cost fraction.
func (e Exit) Validate() error {
	switch e.Method {
	case CapRate:
		if !(e.CapRate > 0) || math.IsInf(e.CapRate, 0) {
			return uwerr.New(uwerr.ErrInvalidExitParameter, "exitCapRate", e.CapRate, "exit cap rate must be positive")
		}
	case NOIMultiple:
		if !(e.Multiple > 0) || math.IsInf(e.Multiple, 0) {
			return uwerr.New(uwerr.ErrInvalidExitParameter, "exitMultiple", e.Multiple, "exit multiple must be positive")
		}
	default:
		return uwerr.New(uwerr.ErrInvalidExitParameter, "exitMethod", 0, "unknown exit method %q", e.Method)
	}
	if e.CostFraction < 0 || e.CostFraction >= 1 || math.IsNaN(e.CostFraction) {
		return uwerr.New(uwerr.ErrInvalidExitParameter, "exitCostFraction", e.CostFraction, "exit cost fraction must be in [0,1)")
	}
	return nil
}

// Value returns the asset value implied by an annual NOI. It is also used
// for the per-month estimated value behind running LTV.
func (e Exit) Value(annualNOI float64) (float64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	return e.value(annualNOI), nil
}

// GrossProceeds returns the sale price before costs and debt repayment.
func (e Exit) GrossProceeds(annualNOI float64) (float64, error) {
	return e.Value(annualNOI)
}

// NetProceeds returns gross proceeds less exit costs and the outstanding
// debt. It can be negative when the debt exceeds the net sale price.
func (e Exit) NetProceeds(annualNOI, outstandingDebt float64) (float64, error) {
	gross, err := e.GrossProceeds(annualNOI)
	if err != nil {
		return 0, err
	}
	return gross*(1-e.CostFraction) - outstandingDebt, nil
}

func (e Exit) value(annualNOI float64) float64 {
	if e.Method == NOIMultiple {
		return annualNOI * e.Multiple
	}
	return annualNOI / e.CapRate
}
