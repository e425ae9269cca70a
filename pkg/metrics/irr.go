// Package metrics derives levered return metrics from a cash-flow projection.
package metrics

import (
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
)

// Solver bounds the IRR root finder.
type Solver struct {
	NPVTolerance         float64
	RateTolerance        float64
	MaxIterations        int
	MaxBracketExpansions int
}

// DefaultSolver returns the solver used when none is configured.
func DefaultSolver() Solver {
	return Solver{
		NPVTolerance:         constants.DefaultNPVTolerance,
		RateTolerance:        constants.DefaultRateTolerance,
		MaxIterations:        constants.DefaultMaxIterations,
		MaxBracketExpansions: constants.DefaultMaxBracketExpansions,
	}
}

func (s Solver) withDefaults() Solver {
	d := DefaultSolver()
	if s.NPVTolerance <= 0 {
		s.NPVTolerance = d.NPVTolerance
	}
	if s.RateTolerance <= 0 {
		s.RateTolerance = d.RateTolerance
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = d.MaxIterations
	}
	if s.MaxBracketExpansions <= 0 {
		s.MaxBracketExpansions = d.MaxBracketExpansions
	}
	return s
}

// NPV discounts cash flows at an annual rate converted to the flows'
// periodicity. Flow 0 is undiscounted.
func NPV(cashFlows []float64, annualRate float64, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, uwerr.New(uwerr.ErrInvalidAssumptions, "periodsPerYear", float64(periodsPerYear), "must be positive")
	}
	if annualRate <= -1 {
		return 0, uwerr.New(uwerr.ErrInvalidAssumptions, "discountRate", annualRate, "must be greater than -100%%")
	}
	periodic := math.Pow(1+annualRate, 1/float64(periodsPerYear)) - 1
	npv, _ := npvAt(cashFlows, periodic)
	return npv, nil
}

// PeriodicIRR solves NPV(r) = 0 for the per-period rate r.
//
// The root is bracketed between MinPeriodicRate and an upper bound that is
// doubled until the sign of NPV flips, then refined with Newton steps that
// fall back to bisection whenever a step would leave the bracket.
func PeriodicIRR(cashFlows []float64, solver Solver) (float64, error) {
	s := solver.withDefaults()
	if !hasSignChange(cashFlows) {
		return 0, uwerr.New(uwerr.ErrIRRNotConvergent, "cashFlows", float64(len(cashFlows)), "cash flows need at least one sign change")
	}

	low, high := constants.MinPeriodicRate, 1.0
	fLow, _ := npvAt(cashFlows, low)
	fHigh, _ := npvAt(cashFlows, high)
	for i := 0; sameSign(fLow, fHigh) && i < s.MaxBracketExpansions; i++ {
		high *= 2
		fHigh, _ = npvAt(cashFlows, high)
	}
	switch {
	case fLow == 0:
		return low, nil
	case fHigh == 0:
		return high, nil
	case sameSign(fLow, fHigh):
		return 0, uwerr.New(uwerr.ErrIRRNotConvergent, "upperBound", high, "no rate bracket found")
	}

	rate := 0.01
	for i := 0; i < s.MaxIterations; i++ {
		f, df := npvAt(cashFlows, rate)
		if math.Abs(f) < s.NPVTolerance {
			return rate, nil
		}
		if sameSign(f, fLow) {
			low, fLow = rate, f
		} else {
			high = rate
		}
		if high-low < s.RateTolerance {
			return rate, nil
		}

		next := rate - f/df
		if df == 0 || math.IsNaN(next) || next <= low || next >= high {
			next = low + (high-low)/2
		}
		rate = next
	}
	return 0, uwerr.New(uwerr.ErrIRRNotConvergent, "iterations", float64(s.MaxIterations), "iteration budget exhausted")
}

// IRR returns the annual effective IRR of cash flows spaced periodsPerYear
// to the year.
func IRR(cashFlows []float64, periodsPerYear int, solver Solver) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, uwerr.New(uwerr.ErrInvalidAssumptions, "periodsPerYear", float64(periodsPerYear), "must be positive")
	}
	r, err := PeriodicIRR(cashFlows, solver)
	if err != nil {
		return 0, err
	}
	return math.Pow(1+r, float64(periodsPerYear)) - 1, nil
}

// npvAt evaluates NPV and dNPV/dr at a periodic rate with Horner's scheme in
// the discount factor. Near -100% the running value may reach ±Inf but never
// NaN, so its sign stays usable for bracketing.
func npvAt(cashFlows []float64, rate float64) (float64, float64) {
	if len(cashFlows) == 0 {
		return 0, 0
	}
	v := 1 / (1 + rate)
	p := cashFlows[len(cashFlows)-1]
	dp := 0.0
	for t := len(cashFlows) - 2; t >= 0; t-- {
		dp = dp*v + p
		p = p*v + cashFlows[t]
	}
	return p, -v * v * dp
}

func hasSignChange(cashFlows []float64) bool {
	pos, neg := false, false
	for _, cf := range cashFlows {
		if cf > 0 {
			pos = true
		} else if cf < 0 {
			neg = true
		}
	}
	return pos && neg
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
