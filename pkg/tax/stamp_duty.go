// Package tax computes acquisition taxes used by the deal assumptions.
package tax

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"github.com/shopspring/decimal"
)

// Band is one progressive tax band. Rate applies to the slice of the price
// between the previous band's Upper and this band's Upper.
type Band struct {
	Upper float64 `json:"upper" yaml:"upper" mapstructure:"upper"`
	Rate  float64 `json:"rate" yaml:"rate" mapstructure:"rate"`
}

// MarshalJSON writes an open top band's upper bound as null.
func (b Band) MarshalJSON() ([]byte, error) {
	var upper *float64
	if !math.IsInf(b.Upper, 1) {
		upper = &b.Upper
	}
	return json.Marshal(struct {
		Upper *float64 `json:"upper"`
		Rate  float64  `json:"rate"`
	}{upper, b.Rate})
}

// UnmarshalJSON reads a null or missing upper bound as an open band.
func (b *Band) UnmarshalJSON(data []byte) error {
	var raw struct {
		Upper *float64 `json:"upper"`
		Rate  float64  `json:"rate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Rate = raw.Rate
	b.Upper = math.Inf(1)
	if raw.Upper != nil {
		b.Upper = *raw.Upper
	}
	return nil
}

// Policy is a progressive stamp-duty schedule.
type Policy struct {
	Bands []Band `json:"bands" yaml:"bands" mapstructure:"bands"`
}

// DefaultResidentialPolicy returns standard England/NI residential rates with
// no first-time buyer relief and no additional dwelling surcharge.
func DefaultResidentialPolicy() Policy {
	return Policy{Bands: []Band{
		{Upper: 250_000, Rate: 0.00},
		{Upper: 925_000, Rate: 0.05},
		{Upper: 1_500_000, Rate: 0.10},
		{Upper: math.Inf(1), Rate: 0.12},
	}}
}

// Validate checks that bands are ascending with non-negative rates.
func (p Policy) Validate() error {
	if len(p.Bands) == 0 {
		return uwerr.New(uwerr.ErrInvalidAssumptions, "stampDuty.bands", 0, "at least one band is required")
	}
	previous := 0.0
	for i, band := range p.Bands {
		field := fmt.Sprintf("stampDuty.bands[%d]", i)
		if band.Rate < 0 || band.Rate > 1 {
			return uwerr.New(uwerr.ErrInvalidAssumptions, field+".rate", band.Rate, "rate must be within [0,1]")
		}
		if band.Upper <= previous {
			return uwerr.New(uwerr.ErrInvalidAssumptions, field+".upper", band.Upper, "band upper bounds must be strictly ascending")
		}
		previous = band.Upper
	}
	return nil
}

// Duty returns the stamp duty on price, rounded to pence. Prices above the
// last band's upper bound are taxed at the last band's rate.
func (p Policy) Duty(price float64) (float64, error) {
	if price < 0 || math.IsNaN(price) {
		return 0, uwerr.New(uwerr.ErrInvalidAssumptions, "purchasePrice", price, "purchase price must be non-negative")
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}

	remaining := decimal.NewFromFloat(price)
	lower := decimal.Zero
	duty := decimal.Zero

	for i, band := range p.Bands {
		rate := decimal.NewFromFloat(band.Rate)
		last := i == len(p.Bands)-1
		if last || math.IsInf(band.Upper, 1) {
			duty = duty.Add(remaining.Mul(rate))
			break
		}
		upper := decimal.NewFromFloat(band.Upper)
		taxable := decimal.Min(remaining, upper.Sub(lower))
		if taxable.IsNegative() {
			taxable = decimal.Zero
		}
		duty = duty.Add(taxable.Mul(rate))
		remaining = remaining.Sub(taxable)
		lower = upper
		if !remaining.IsPositive() {
			break
		}
	}

	return duty.Round(2).InexactFloat64(), nil
}
