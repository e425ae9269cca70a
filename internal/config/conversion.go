package config

import (
	"fmt"
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/montecarlo"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/optimizer"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/scenario"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/events"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/loans"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/tax"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/valuation"
)

// ToDeal converts the YAML deal section into a deal.Deal. Enumerations are
// parsed here; numeric ranges are left to deal.Validate.
func (c *Configuration) ToDeal() (deal.Deal, error) {
	src := c.Deal

	debtType, err := loans.ParseDebtType(src.Financing.Type)
	if err != nil {
		return deal.Deal{}, fmt.Errorf("deal.financing.type: %w", err)
	}
	method, err := valuation.ParseMethod(src.Exit.Method)
	if err != nil {
		return deal.Deal{}, fmt.Errorf("deal.exit.method: %w", err)
	}
	mode, err := parseOpexMode(src.Operating.Mode)
	if err != nil {
		return deal.Deal{}, fmt.Errorf("deal.operating.mode: %w", err)
	}

	d := deal.Deal{
		Name:          src.Name,
		StartDate:     src.StartDate,
		PurchasePrice: src.PurchasePrice,
		Acquisition: deal.AcquisitionCosts{
			LegalFees:  src.Acquisition.LegalFees,
			BrokerFees: src.Acquisition.BrokerFees,
			OtherCosts: src.Acquisition.OtherCosts,
		},
		Financing: deal.Financing{
			LTV:          src.Financing.LTV,
			InterestRate: src.Financing.InterestRate,
			TermMonths:   src.Financing.TermMonths,
			Type:         debtType,
			FeeFraction:  src.Financing.FeeFraction,
		},
		Rental: deal.Rental{
			MonthlyRent: src.Rental.MonthlyRent,
			GrowthRate:  src.Rental.GrowthRate,
			VacancyRate: src.Rental.VacancyRate,
		},
		Operating: deal.Operating{
			Mode:          mode,
			Ratio:         src.Operating.Ratio,
			MonthlyAmount: src.Operating.MonthlyAmount,
			GrowthRate:    src.Operating.GrowthRate,
		},
		Exit: deal.ExitTerms{
			Method:       method,
			CapRate:      src.Exit.CapRate,
			Multiple:     src.Exit.Multiple,
			CostFraction: src.Exit.CostFraction,
		},
		HoldMonths:   src.HoldMonths,
		DiscountRate: src.DiscountRate,
		HurdleRate:   src.HurdleRate,
	}

	if src.Acquisition.StampDuty != nil {
		v := *src.Acquisition.StampDuty
		d.Acquisition.StampDuty = &v
	}
	if len(src.Acquisition.StampDutyBands) > 0 {
		bands := append([]tax.Band(nil), src.Acquisition.StampDutyBands...)
		// An open top band may be written without an upper bound.
		if last := &bands[len(bands)-1]; last.Upper == 0 {
			last.Upper = math.Inf(1)
		}
		d.Acquisition.StampDutyPolicy = &tax.Policy{Bands: bands}
	}
	if src.Rental.VacancySchedule != nil {
		d.Rental.VacancySchedule = append([]float64(nil), src.Rental.VacancySchedule...)
	}
	for _, c := range src.CapEx {
		d.CapEx = append(d.CapEx, events.Event{
			Name:       c.Name,
			Amount:     c.Amount,
			StartDate:  c.StartDate,
			EndDate:    c.EndDate,
			StartMonth: c.StartMonth,
			EndMonth:   c.EndMonth,
			Frequency:  c.Frequency,
			GrowthRate: c.GrowthRate,
		})
	}

	return d, nil
}

func parseOpexMode(value string) (deal.OpexMode, error) {
	switch value {
	case "", "ratio":
		return deal.OpexRatio, nil
	case "absolute", "fixed":
		return deal.OpexAbsolute, nil
	default:
		return "", fmt.Errorf("unknown operating expense mode %q", value)
	}
}

// ToScenarios returns the configured stress scenarios, preceded by the
// standard set when StandardScenarios is enabled.
func (c *Configuration) ToScenarios() []scenario.Scenario {
	var out []scenario.Scenario
	if c.StandardScenarios {
		out = append(out, scenario.StandardScenarios()...)
	}
	for _, s := range c.Scenarios {
		out = append(out, scenario.Scenario{
			Name: s.Name,
			Override: scenario.Override{
				InterestRateShift: s.InterestRateShift,
				RentGrowthShift:   s.RentGrowthShift,
				ExitCapRateShift:  s.ExitCapRateShift,
				RentLevelShift:    s.RentLevelShift,
				VacancyShift:      s.VacancyShift,
				ExitMultipleShift: s.ExitMultipleShift,
			},
		})
	}
	return out
}

// ToDirectives returns the configured break-even solves in order.
func (c *Configuration) ToDirectives() []optimizer.Directive {
	if len(c.Solver) == 0 {
		return nil
	}
	out := make([]optimizer.Directive, len(c.Solver))
	for i, s := range c.Solver {
		out[i] = optimizer.Directive{
			Field:         s.Field,
			Min:           s.Min,
			Max:           s.Max,
			Tolerance:     s.Tolerance,
			MaxIterations: s.MaxIterations,
		}
	}
	return out
}

// ToMonteCarlo builds the simulation config for d. The standard uncertainty
// model is the starting point and every configured field replaces its
// counterpart. An unset seed is left nil so the engine picks one.
func (c *Configuration) ToMonteCarlo(d deal.Deal) montecarlo.Config {
	cfg := montecarlo.DefaultConfig(d)
	cfg.Seed = nil

	m := c.MonteCarlo
	if m == nil {
		return cfg
	}
	if m.Draws > 0 {
		cfg.Draws = m.Draws
	}
	if m.Seed != nil {
		seed := *m.Seed
		cfg.Seed = &seed
	}
	cfg.Workers = m.Workers

	cfg.RentGrowth = m.RentGrowth.apply(cfg.RentGrowth)
	cfg.Vacancy = m.Vacancy.apply(cfg.Vacancy)
	cfg.ExitCapRate = m.ExitCapRate.apply(cfg.ExitCapRate)
	cfg.InterestRate = m.InterestRate.apply(cfg.InterestRate)

	cfg.IRRThresholds = append([]float64(nil), m.IRRThresholds...)
	cfg.NPVThresholds = append([]float64(nil), m.NPVThresholds...)
	cfg.Percentiles = append([]float64(nil), m.Percentiles...)
	return cfg
}

// apply returns the distribution to sample with, given the default centred
// on the base deal.
func (dist *Distribution) apply(fallback *montecarlo.ClippedNormal) *montecarlo.ClippedNormal {
	if dist == nil {
		return fallback
	}
	if dist.Disabled {
		return nil
	}
	out := montecarlo.ClippedNormal{
		StdDev: dist.StdDev,
		Lower:  dist.Lower,
		Upper:  dist.Upper,
	}
	switch {
	case dist.Mean != nil:
		out.Mean = *dist.Mean
	case fallback != nil:
		out.Mean = fallback.Mean
	}
	return &out
}
