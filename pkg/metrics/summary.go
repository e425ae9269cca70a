package metrics

import (
	"fmt"
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/cashflow"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/mathutil"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Ratio is a possibly undefined ratio; see mathutil.Ratio.
type Ratio = mathutil.Ratio

// Result holds the levered return metrics of one projection. It is a derived
// value and is never modified after Summarize returns it.
type Result struct {
	IRR                float64 `json:"irr"`
	NPV                float64 `json:"npv"`
	DiscountRate       float64 `json:"discountRate"`
	EquityMultiple     float64 `json:"equityMultiple"`
	CashOnCash         []Ratio `json:"cashOnCash"`
	AverageCashOnCash  Ratio   `json:"averageCashOnCash"`
	DSCR               []Ratio `json:"dscr"`
	MinDSCR            Ratio   `json:"minDscr"`
	AverageDSCR        Ratio   `json:"averageDscr"`
	LTVOrigination     Ratio   `json:"ltvOrigination"`
	LTVExit            Ratio   `json:"ltvExit"`
	MaxLTV             Ratio   `json:"maxLtv"`
	EquityInvested     float64 `json:"equityInvested"`
	TotalDistributions float64 `json:"totalDistributions"`
	Profit             float64 `json:"profit"`
}

// EquityMultiple returns the sum of positive flows after period 0 over the
// initial equity.
func EquityMultiple(cashFlows []float64, equity float64) (float64, error) {
	if !(equity > 0) {
		return 0, uwerr.New(uwerr.ErrInvalidEquityBasis, "equity", equity, "equity invested must be positive")
	}
	return distributions(cashFlows) / equity, nil
}

// CashOnCash returns operating cash flow over equity for each modelled year.
// Year 0 is skipped. Sale proceeds and balloon repayments are excluded.
func CashOnCash(annual []cashflow.Year, equity float64) ([]Ratio, error) {
	if !(equity > 0) {
		return nil, uwerr.New(uwerr.ErrInvalidEquityBasis, "equity", equity, "equity invested must be positive")
	}
	out := make([]Ratio, 0, len(annual))
	for _, y := range annual {
		if y.Year == 0 {
			continue
		}
		out = append(out, Ratio(y.OperatingCashFlow/equity))
	}
	return out, nil
}

// DSCR returns NOI over debt service, unbounded when nothing is owed.
func DSCR(noi, debtService float64) Ratio {
	return cashflow.Coverage(noi, debtService)
}

// LTV returns outstanding debt over asset value.
func LTV(balance, value float64) Ratio {
	return cashflow.LoanToValue(balance, value)
}

// Summarize computes every metric for p. IRR and NPV use monthly periods.
func Summarize(p cashflow.Projection, discountRate float64, solver Solver) (Result, error) {
	if len(p.Monthly) < 2 {
		return Result{}, uwerr.New(uwerr.ErrInvalidAssumptions, "holdMonths", float64(p.HoldMonths()), "projection has no operating months")
	}
	flows := p.LeveredCashFlows()
	equity := p.InitialEquity

	res := Result{
		DiscountRate:   discountRate,
		EquityInvested: equity,
		Profit:         floats.Sum(flows),
	}

	var err error
	if res.EquityMultiple, err = EquityMultiple(flows, equity); err != nil {
		return Result{}, err
	}
	res.TotalDistributions = distributions(flows)

	if res.IRR, err = IRR(flows, constants.MonthsPerYear, solver); err != nil {
		return Result{}, fmt.Errorf("irr: %w", err)
	}
	if res.NPV, err = NPV(flows, discountRate, constants.MonthsPerYear); err != nil {
		return Result{}, fmt.Errorf("npv: %w", err)
	}

	if res.CashOnCash, err = CashOnCash(p.Annual, equity); err != nil {
		return Result{}, err
	}
	operating := 0.0
	for _, m := range p.Monthly[1:] {
		operating += m.OperatingCashFlow
	}
	years := float64(p.HoldMonths()) / constants.MonthsPerYear
	res.AverageCashOnCash = Ratio(operating / equity / years)

	res.DSCR = make([]Ratio, 0, p.HoldMonths())
	var defined []float64
	for _, m := range p.Monthly[1:] {
		res.DSCR = append(res.DSCR, m.DSCR)
		if m.DSCR.Defined() {
			defined = append(defined, m.DSCR.Float())
		}
	}
	res.MinDSCR, res.AverageDSCR = mathutil.Unbounded, mathutil.Unbounded
	if len(defined) > 0 {
		res.MinDSCR = Ratio(floats.Min(defined))
		res.AverageDSCR = Ratio(stat.Mean(defined, nil))
	}

	res.LTVOrigination = LTV(p.LoanAmount, p.PurchasePrice)
	res.LTVExit = LTV(p.DebtAtExit, p.ExitValue)
	res.MaxLTV = maxRatio(p)

	return res, nil
}

func distributions(cashFlows []float64) float64 {
	total := 0.0
	for i, cf := range cashFlows {
		if i > 0 && cf > 0 {
			total += cf
		}
	}
	return total
}

func maxRatio(p cashflow.Projection) Ratio {
	highest := math.Inf(-1)
	for _, m := range p.Monthly {
		if !m.LTV.Defined() {
			return mathutil.Unbounded
		}
		highest = math.Max(highest, m.LTV.Float())
	}
	return Ratio(highest)
}
