package montecarlo

import (
	"fmt"
	"runtime"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/valuation"
)

// DefaultSeed is the seed DefaultConfig uses.
const DefaultSeed uint64 = 42

// Config drives a simulation. Variables left nil are held at the base deal's
// value in every draw.
type Config struct {
	Draws   int     `json:"draws"`
	Seed    *uint64 `json:"seed,omitempty"`
	Workers int     `json:"workers,omitempty"`

	RentGrowth   *ClippedNormal `json:"rentGrowth,omitempty"`
	Vacancy      *ClippedNormal `json:"vacancy,omitempty"`
	ExitCapRate  *ClippedNormal `json:"exitCapRate,omitempty"`
	InterestRate *ClippedNormal `json:"interestRate,omitempty"`

	// IRRThresholds and NPVThresholds are the downside levels whose breach
	// probability is reported. Empty slices fall back to {0, hurdle} and {0}.
	IRRThresholds []float64 `json:"irrThresholds,omitempty"`
	NPVThresholds []float64 `json:"npvThresholds,omitempty"`

	// Percentiles are in [0,100].
	Percentiles []float64 `json:"percentiles,omitempty"`
}

// DefaultConfig returns the standard uncertainty model centred on d: rent
// growth σ 1% clipped to ±20%, vacancy σ 1.5% clipped to [1%,35%], exit cap
// σ 0.5% clipped to [3%,20%] and interest rate σ 0.75% clipped to [0,20%].
// The exit cap rate is only sampled for cap-rate exits and the interest rate
// only for leveraged deals.
func DefaultConfig(d deal.Deal) Config {
	seed := DefaultSeed
	cfg := Config{
		Draws: constants.DefaultDraws,
		Seed:  &seed,
		RentGrowth: &ClippedNormal{
			Mean: d.Rental.GrowthRate, StdDev: 0.01, Lower: -0.20, Upper: 0.20,
		},
		Vacancy: &ClippedNormal{
			Mean: d.Rental.VacancyRate, StdDev: 0.015, Lower: 0.01, Upper: 0.35,
		},
	}
	if d.Exit.Method == valuation.CapRate {
		cfg.ExitCapRate = &ClippedNormal{
			Mean: d.Exit.CapRate, StdDev: 0.005, Lower: 0.03, Upper: 0.20,
		}
	}
	if d.Leveraged() {
		cfg.InterestRate = &ClippedNormal{
			Mean: d.Financing.InterestRate, StdDev: 0.0075, Lower: 0, Upper: 0.20,
		}
	}
	return cfg
}

// Validate checks every configured distribution and the run shape.
func (c Config) Validate() error {
	if c.Draws <= 0 {
		return uwerr.New(uwerr.ErrInvalidDistributionConfig, "draws", float64(c.Draws), "draw count must be positive")
	}
	for _, v := range c.variables() {
		if v.dist == nil {
			continue
		}
		if err := v.dist.Validate(v.name); err != nil {
			return err
		}
	}
	for i, p := range c.Percentiles {
		if p < 0 || p > 100 {
			return uwerr.New(uwerr.ErrInvalidDistributionConfig, fmt.Sprintf("percentiles[%d]", i), p, "percentile must be within [0,100]")
		}
	}
	return nil
}

func (c Config) withDefaults(d deal.Deal) Config {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if len(c.Percentiles) == 0 {
		c.Percentiles = append([]float64(nil), constants.DefaultPercentiles...)
	}
	if len(c.IRRThresholds) == 0 {
		hurdle := d.HurdleRate
		if hurdle == 0 {
			hurdle = constants.DefaultHurdleIRR
		}
		c.IRRThresholds = []float64{0, hurdle}
	}
	if len(c.NPVThresholds) == 0 {
		c.NPVThresholds = []float64{0}
	}
	return c
}

type variable struct {
	name string
	dist *ClippedNormal
}

// variables lists the distributions in sampling order. The order is fixed so
// a seed always maps to the same draws.
func (c Config) variables() []variable {
	return []variable{
		{"rentGrowth", c.RentGrowth},
		{"vacancy", c.Vacancy},
		{"exitCapRate", c.ExitCapRate},
		{"interestRate", c.InterestRate},
	}
}
