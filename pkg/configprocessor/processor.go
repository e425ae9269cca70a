// Package configprocessor provides shared configuration processing utilities.
package configprocessor

import (
	"fmt"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/datetime"
)

// DealInfo represents the deal fields the warnings are derived from
type DealInfo struct {
	Name           string
	StartDate      string
	HoldMonths     int
	TermMonths     int
	DebtType       string
	LTV            float64
	VacancyRate    float64
	ExitMethod     string
	ExitCapRate    float64
	DiscountRate   float64
	HasStampDuty   bool
	ScheduleLen    int
	HasSchedule    bool
	OutputFormat   string
	RecorderDriver string
	CapEx          []CapExInfo
}

// CapExInfo is a capital cost with its first month resolved against the
// deal start.
type CapExInfo struct {
	Name       string
	StartMonth int
}

// ScenarioInfo represents scenario configuration information
type ScenarioInfo struct {
	Name string
}

// MonteCarloInfo represents simulation configuration information
type MonteCarloInfo struct {
	Draws   int
	HasSeed bool
}

// MinRecommendedDraws is the draw count below which percentiles are noisy.
const MinRecommendedDraws = 500

// Processor handles configuration processing and validation
type Processor struct{}

// NewProcessor creates a new configuration processor
func NewProcessor() *Processor {
	return &Processor{}
}

// ValidateConfiguration inspects a configuration that is structurally valid
// and returns warnings about assumptions that are legal but probably not what
// the user meant. Hard errors are left to the deal validation.
func (p *Processor) ValidateConfiguration(deal DealInfo, scenarios []ScenarioInfo, mc *MonteCarloInfo) []string {
	var warnings []string

	if deal.StartDate != "" {
		if _, err := datetime.PeriodLabels(deal.StartDate, 0); err != nil {
			warnings = append(warnings, fmt.Sprintf("Deal start date '%s' is not in YYYY-MM format", deal.StartDate))
		}
	}

	if deal.LTV > 0 && deal.TermMonths > 0 && deal.HoldMonths > deal.TermMonths {
		warnings = append(warnings, fmt.Sprintf("Hold of %d months outlives the %d month loan term; the loan is repaid before exit", deal.HoldMonths, deal.TermMonths))
	}

	if deal.HoldMonths > 0 && deal.HoldMonths < constants.MonthsPerYear {
		warnings = append(warnings, fmt.Sprintf("Hold of %d months is under a year; exit NOI is annualized from the months held", deal.HoldMonths))
	}

	if deal.VacancyRate > 0.5 {
		warnings = append(warnings, fmt.Sprintf("Vacancy rate %.1f%% looks like a percentage rather than a fraction", deal.VacancyRate*constants.PercentageMultiplier))
	}

	if deal.ExitMethod == "cap-rate" && deal.ExitCapRate > 0 && deal.ExitCapRate < 0.02 {
		warnings = append(warnings, fmt.Sprintf("Exit cap rate %.2f%% is unusually low", deal.ExitCapRate*constants.PercentageMultiplier))
	}

	if deal.DiscountRate > 1 {
		warnings = append(warnings, fmt.Sprintf("Discount rate %.2f looks like a percentage rather than a fraction", deal.DiscountRate))
	}

	if deal.HasSchedule && deal.ScheduleLen > deal.HoldMonths {
		warnings = append(warnings, fmt.Sprintf("Vacancy schedule has %d entries but the hold is %d months; extra entries are ignored", deal.ScheduleLen, deal.HoldMonths))
	}

	for _, c := range deal.CapEx {
		if deal.HoldMonths > 0 && c.StartMonth > deal.HoldMonths {
			warnings = append(warnings, fmt.Sprintf("Capital cost '%s' starts in month %d, after the %d month hold; it is never charged", c.Name, c.StartMonth, deal.HoldMonths))
		}
	}

	switch deal.OutputFormat {
	case "", constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown output format '%s'; falling back to %s", deal.OutputFormat, constants.OutputFormatPretty))
	}

	switch deal.RecorderDriver {
	case "", "none", "sqlite":
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown recorder driver '%s'; runs will not be recorded", deal.RecorderDriver))
	}

	seen := make(map[string]bool, len(scenarios))
	for _, scenario := range scenarios {
		if seen[scenario.Name] {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' is defined more than once", scenario.Name))
		}
		seen[scenario.Name] = true
	}

	if mc != nil {
		if mc.Draws > 0 && mc.Draws < MinRecommendedDraws {
			warnings = append(warnings, fmt.Sprintf("Monte Carlo draw count %d is below %d; percentiles will be noisy", mc.Draws, MinRecommendedDraws))
		}
		if !mc.HasSeed {
			warnings = append(warnings, "Monte Carlo seed is not set; results will not be reproducible")
		}
	}

	if len(warnings) == 0 {
		return nil
	}
	return warnings
}
