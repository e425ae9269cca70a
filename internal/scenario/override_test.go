package scenario

import (
	"testing"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

func TestApplyLeavesBaseUntouched(t *testing.T) {
	d := testutil.SampleDeal()
	d.Rental.VacancySchedule = make([]float64, d.HoldMonths)

	o := Override{
		InterestRateShift: 0.01,
		RentGrowthShift:   -0.005,
		ExitCapRateShift:  0.0025,
		RentLevelShift:    -0.10,
		VacancyShift:      0.02,
	}
	shocked := o.Apply(d)

	assert.InDelta(t, 0.06, shocked.Financing.InterestRate, 1e-12)
	assert.InDelta(t, 0.015, shocked.Rental.GrowthRate, 1e-12)
	assert.InDelta(t, 0.0625, shocked.Exit.CapRate, 1e-12)
	assert.InDelta(t, 1_350, shocked.Rental.MonthlyRent, 1e-9)
	assert.InDelta(t, 0.07, shocked.Rental.VacancyRate, 1e-12)
	assert.InDelta(t, 0.02, shocked.Rental.VacancySchedule[0], 1e-12)

	assert.Equal(t, testutil.SampleDeal().Financing, d.Financing)
	assert.Equal(t, 0.0, d.Rental.VacancySchedule[0])
}

func TestApplyClampsVacancy(t *testing.T) {
	d := testutil.SampleDeal()
	assert.Equal(t, 0.0, Override{VacancyShift: -0.5}.Apply(d).Rental.VacancyRate)
	assert.Equal(t, 1.0, Override{VacancyShift: 2}.Apply(d).Rental.VacancyRate)
}

func TestZeroOverrideIsIdentity(t *testing.T) {
	d := testutil.SampleDeal()
	assert.True(t, Override{}.IsZero())
	assert.Equal(t, d, Override{}.Apply(d))
}

func TestStandardScenarios(t *testing.T) {
	scenarios := StandardScenarios()
	assert.Len(t, scenarios, 9)
	assert.Equal(t, "Rate shock +50bp", scenarios[0].Name)
	assert.InDelta(t, 0.005, scenarios[0].Override.InterestRateShift, 1e-12)
	assert.Equal(t, "Rent compression -10%", scenarios[4].Name)
	assert.InDelta(t, -0.10, scenarios[4].Override.RentLevelShift, 1e-12)
	assert.Equal(t, "Exit yield expansion +100bp", scenarios[8].Name)
	assert.InDelta(t, 0.01, scenarios[8].Override.ExitCapRateShift, 1e-12)
}
