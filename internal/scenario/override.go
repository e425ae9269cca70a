package scenario

import (
	"fmt"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/mathutil"
)

// Override is a sparse set of additive shifts applied to a deal. The zero
// value leaves the deal unchanged.
type Override struct {
	// InterestRateShift is added to the loan rate (0.01 = +100bp).
	InterestRateShift float64 `json:"interestRateShift,omitempty" yaml:"interestRateShift,omitempty" mapstructure:"interestRateShift"`
	// RentGrowthShift is added to the annual rent growth rate.
	RentGrowthShift float64 `json:"rentGrowthShift,omitempty" yaml:"rentGrowthShift,omitempty" mapstructure:"rentGrowthShift"`
	// ExitCapRateShift is added to the exit cap rate.
	ExitCapRateShift float64 `json:"exitCapRateShift,omitempty" yaml:"exitCapRateShift,omitempty" mapstructure:"exitCapRateShift"`
	// RentLevelShift scales the starting rent (-0.05 = 5% lower).
	RentLevelShift float64 `json:"rentLevelShift,omitempty" yaml:"rentLevelShift,omitempty" mapstructure:"rentLevelShift"`
	// VacancyShift is added to the vacancy rate and every schedule entry,
	// clamped to [0,1].
	VacancyShift float64 `json:"vacancyShift,omitempty" yaml:"vacancyShift,omitempty" mapstructure:"vacancyShift"`
	// ExitMultipleShift is added to the exit NOI multiple.
	ExitMultipleShift float64 `json:"exitMultipleShift,omitempty" yaml:"exitMultipleShift,omitempty" mapstructure:"exitMultipleShift"`
}

// IsZero reports whether o changes nothing.
func (o Override) IsZero() bool {
	return o == Override{}
}

// Apply returns a perturbed copy of d. d itself is not modified. The result
// is not validated; the pipeline rejects out-of-range values.
func (o Override) Apply(d deal.Deal) deal.Deal {
	c := d.Clone()
	c.Financing.InterestRate += o.InterestRateShift
	c.Rental.GrowthRate += o.RentGrowthShift
	c.Rental.MonthlyRent *= 1 + o.RentLevelShift
	c.Exit.CapRate += o.ExitCapRateShift
	c.Exit.Multiple += o.ExitMultipleShift

	if o.VacancyShift != 0 {
		c.Rental.VacancyRate = mathutil.Clamp(c.Rental.VacancyRate+o.VacancyShift, 0, 1)
		for i, v := range c.Rental.VacancySchedule {
			c.Rental.VacancySchedule[i] = mathutil.Clamp(v+o.VacancyShift, 0, 1)
		}
	}
	return c
}

// Scenario is a named override.
type Scenario struct {
	Name     string   `json:"name" yaml:"name" mapstructure:"name"`
	Override Override `json:"override" yaml:"override" mapstructure:"override"`
}

// Rate shocks, rent compressions and exit yield expansions run by
// StandardScenarios.
var (
	RateShockBps          = []int{50, 100, 200}
	RentCompressionPct    = []int{5, 10, 15}
	ExitYieldExpansionBps = []int{25, 50, 100}
)

// StandardScenarios returns the usual stress grid: interest rate shocks,
// rent compression and exit yield expansion.
func StandardScenarios() []Scenario {
	var out []Scenario
	for _, bps := range RateShockBps {
		out = append(out, Scenario{
			Name:     fmt.Sprintf("Rate shock +%dbp", bps),
			Override: Override{InterestRateShift: float64(bps) * constants.BasisPoint},
		})
	}
	for _, pct := range RentCompressionPct {
		out = append(out, Scenario{
			Name:     fmt.Sprintf("Rent compression -%d%%", pct),
			Override: Override{RentLevelShift: -float64(pct) / constants.PercentageMultiplier},
		})
	}
	for _, bps := range ExitYieldExpansionBps {
		out = append(out, Scenario{
			Name:     fmt.Sprintf("Exit yield expansion +%dbp", bps),
			Override: Override{ExitCapRateShift: float64(bps) * constants.BasisPoint},
		})
	}
	return out
}
