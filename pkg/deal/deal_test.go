package deal_test

import (
	"errors"
	"testing"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/events"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/tax"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/testutil"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialEquity(t *testing.T) {
	d := testutil.SampleDeal()

	assert.InDelta(t, 150_000, d.LoanAmount(), 1e-9)
	assert.InDelta(t, 1_500, d.FinancingFee(), 1e-9)

	costs, err := d.AcquisitionCostTotal()
	require.NoError(t, err)
	assert.InDelta(t, 1_500, costs, 1e-9, "no stamp duty below the first band")

	equity, err := d.InitialEquity()
	require.NoError(t, err)
	assert.InDelta(t, 53_000, equity, 1e-9)
}

func TestStampDutyOverrideAndPolicy(t *testing.T) {
	d := testutil.SampleDeal()
	d.PurchasePrice = 300_000

	duty, err := d.StampDuty()
	require.NoError(t, err)
	assert.InDelta(t, 2_500, duty, 1e-9)

	d.Acquisition.StampDuty = testutil.Float64Ptr(9_999)
	duty, err = d.StampDuty()
	require.NoError(t, err)
	assert.Equal(t, 9_999.0, duty)

	d.Acquisition.StampDuty = nil
	d.Acquisition.StampDutyPolicy = &tax.Policy{Bands: []tax.Band{{Upper: 100_000, Rate: 0}, {Upper: 1e12, Rate: 0.03}}}
	duty, err = d.StampDuty()
	require.NoError(t, err)
	assert.InDelta(t, 6_000, duty, 1e-9)
}

func TestCloneIsDeep(t *testing.T) {
	d := testutil.SampleDeal()
	d.Rental.VacancySchedule = make([]float64, d.HoldMonths)
	d.Acquisition.StampDuty = testutil.Float64Ptr(100)
	d.Acquisition.StampDutyPolicy = &tax.Policy{Bands: []tax.Band{{Upper: 1e9, Rate: 0.01}}}

	c := d.Clone()
	c.Rental.VacancySchedule[0] = 0.5
	*c.Acquisition.StampDuty = 200
	c.Acquisition.StampDutyPolicy.Bands[0].Rate = 0.5

	assert.Equal(t, 0.0, d.Rental.VacancySchedule[0])
	assert.Equal(t, 100.0, *d.Acquisition.StampDuty)
	assert.Equal(t, 0.01, d.Acquisition.StampDutyPolicy.Bands[0].Rate)
}

func TestVacancyAt(t *testing.T) {
	d := testutil.SampleDeal()
	assert.Equal(t, 0.05, d.VacancyAt(1))
	assert.Equal(t, 0.05, d.VacancyAt(60))

	d.Rental.VacancySchedule = make([]float64, d.HoldMonths)
	d.Rental.VacancySchedule[2] = 1
	assert.Equal(t, 1.0, d.VacancyAt(3))
	assert.Equal(t, 0.0, d.VacancyAt(4))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*deal.Deal)
		kind   error
	}{
		{"zero price", func(d *deal.Deal) { d.PurchasePrice = 0 }, uwerr.ErrInvalidAssumptions},
		{"zero hold", func(d *deal.Deal) { d.HoldMonths = 0 }, uwerr.ErrInvalidAssumptions},
		{"ltv above one", func(d *deal.Deal) { d.Financing.LTV = 1.2 }, uwerr.ErrInvalidAssumptions},
		{"vacancy above one", func(d *deal.Deal) { d.Rental.VacancyRate = 1.5 }, uwerr.ErrInvalidAssumptions},
		{"short vacancy schedule", func(d *deal.Deal) { d.Rental.VacancySchedule = []float64{0.1} }, uwerr.ErrInvalidAssumptions},
		{"negative legal fees", func(d *deal.Deal) { d.Acquisition.LegalFees = -1 }, uwerr.ErrInvalidAssumptions},
		{"unknown opex mode", func(d *deal.Deal) { d.Operating.Mode = "" }, uwerr.ErrInvalidAssumptions},
		{"negative rate", func(d *deal.Deal) { d.Financing.InterestRate = -0.01 }, uwerr.ErrInvalidFinancingTerms},
		{"zero term", func(d *deal.Deal) { d.Financing.TermMonths = 0 }, uwerr.ErrInvalidFinancingTerms},
		{"zero exit cap", func(d *deal.Deal) { d.Exit.CapRate = 0 }, uwerr.ErrInvalidExitParameter},
		{"negative capex", func(d *deal.Deal) { d.CapEx = []events.Event{{Name: "Refund", Amount: -100}} }, uwerr.ErrInvalidAssumptions},
		{"undated deal with dated capex", func(d *deal.Deal) {
			d.StartDate = ""
			d.CapEx = []events.Event{{Name: "Kitchen", Amount: 100, StartDate: "2026-01"}}
		}, uwerr.ErrInvalidAssumptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testutil.SampleDeal()
			tt.mutate(&d)
			err := d.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "expected %v, got %v", tt.kind, err)
		})
	}
}

func TestCapExSchedule(t *testing.T) {
	d := testutil.SampleDeal()
	schedule, err := d.CapExSchedule()
	require.NoError(t, err)
	assert.Len(t, schedule, d.HoldMonths+1)
	for _, v := range schedule {
		assert.Zero(t, v)
	}

	d.CapEx = []events.Event{
		{Name: "Kitchen", Amount: 12_000, StartDate: "2026-07"},
		{Name: "Redecoration", Amount: 600, StartMonth: 24, Frequency: 24},
	}
	schedule, err = d.CapExSchedule()
	require.NoError(t, err)
	assert.Equal(t, 12_000.0, schedule[18])
	assert.Equal(t, 600.0, schedule[24])
	assert.Equal(t, 600.0, schedule[48])

	c := d.Clone()
	c.CapEx[0].Amount = 1
	assert.Equal(t, 12_000.0, d.CapEx[0].Amount)
}

func TestValidateUnleveraged(t *testing.T) {
	d := testutil.SampleDeal()
	d.Financing = deal.Financing{}
	require.NoError(t, d.Validate())
	assert.False(t, d.Leveraged())
}
