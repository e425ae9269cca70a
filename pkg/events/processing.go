// Package events expands scheduled capital expenditure into per-month
// amounts on the projection calendar.
package events

import (
	"fmt"
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/datetime"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
)

// Event is a one-off or recurring capital cost. StartDate and EndDate are
// month labels on the deal calendar and take precedence over StartMonth and
// EndMonth, which count operating months from 1. Amount is a positive
// outflow in month-1 money, indexed at GrowthRate per year.
type Event struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	StartDate  string  `json:"startDate,omitempty"`
	EndDate    string  `json:"endDate,omitempty"`
	StartMonth int     `json:"startMonth,omitempty"`
	EndMonth   int     `json:"endMonth,omitempty"`
	Frequency  int     `json:"frequency,omitempty"` // months; 0 = one-off
	GrowthRate float64 `json:"growthRate,omitempty"`
}

// Validate range-checks the event on its own.
func (e Event) Validate() error {
	if e.Amount < 0 || math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
		return uwerr.New(uwerr.ErrInvalidAssumptions, "capex.amount", e.Amount, "capex %q amount must be non-negative", e.Name)
	}
	if e.Frequency < 0 {
		return uwerr.New(uwerr.ErrInvalidAssumptions, "capex.frequency", float64(e.Frequency), "capex %q frequency must be non-negative", e.Name)
	}
	if e.StartMonth < 0 || e.EndMonth < 0 {
		return uwerr.New(uwerr.ErrInvalidAssumptions, "capex.startMonth", float64(e.StartMonth), "capex %q months must be non-negative", e.Name)
	}
	if e.EndMonth > 0 && e.EndMonth < e.StartMonth {
		return uwerr.New(uwerr.ErrInvalidAssumptions, "capex.endMonth", float64(e.EndMonth), "capex %q ends before it starts", e.Name)
	}
	if e.GrowthRate <= -1 || math.IsNaN(e.GrowthRate) {
		return uwerr.New(uwerr.ErrInvalidAssumptions, "capex.growthRate", e.GrowthRate, "capex %q growth must be greater than -100%%", e.Name)
	}
	return nil
}

// FormMonthList returns the operating months, in order, in which the event
// falls within a hold of hold months starting at start. Dated events need a
// start month. An occurrence in the acquisition month is charged in month 1
// and occurrences before it are dropped.
func (e Event) FormMonthList(start string, hold int) ([]int, error) {
	first := e.StartMonth
	if first < 1 {
		first = 1
	}
	if e.StartDate != "" {
		var err error
		if first, err = e.resolve(start, e.StartDate); err != nil {
			return nil, err
		}
	}
	last := hold
	if e.EndMonth > 0 {
		last = e.EndMonth
	}
	if e.EndDate != "" {
		var err error
		if last, err = e.resolve(start, e.EndDate); err != nil {
			return nil, err
		}
	}
	if last > hold {
		last = hold
	}

	if e.Frequency > 0 {
		for first < 0 {
			first += e.Frequency
		}
	}

	var months []int
	if first < 0 || first > last {
		return months, nil
	}
	for m := first; m <= last; m += e.Frequency {
		if m == 0 {
			months = append(months, 1)
		} else {
			months = append(months, m)
		}
		if e.Frequency == 0 {
			break
		}
	}
	return months, nil
}

func (e Event) resolve(start, date string) (int, error) {
	if start == "" {
		return 0, fmt.Errorf("capex %q is dated but the deal has no start date", e.Name)
	}
	offset, err := datetime.MonthOffset(start, date)
	if err != nil {
		return 0, fmt.Errorf("capex %q: %w", e.Name, err)
	}
	return offset, nil
}

// AmountAt returns the indexed cost of one occurrence in month m.
func (e Event) AmountAt(m int) float64 {
	if e.GrowthRate == 0 || m <= 1 {
		return e.Amount
	}
	return e.Amount * math.Pow(1+e.GrowthRate, float64(m-1)/constants.MonthsPerYear)
}

// Schedule sums every event into a slice indexed by month, 0 through hold.
// Month 0 is always zero.
func Schedule(events []Event, start string, hold int) ([]float64, error) {
	out := make([]float64, hold+1)
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		months, err := e.FormMonthList(start, hold)
		if err != nil {
			return nil, err
		}
		for _, m := range months {
			out[m] += e.AmountAt(m)
		}
	}
	return out, nil
}
