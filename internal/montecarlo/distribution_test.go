package montecarlo

import (
	"errors"
	"testing"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/testutil"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func TestClippedNormalSampleWithinBounds(t *testing.T) {
	c := ClippedNormal{Mean: 0.05, StdDev: 0.5, Lower: 0, Upper: 0.1}
	src := rand.NewSource(1)
	for i := 0; i < 1000; i++ {
		v := c.Sample(src)
		if v < c.Lower || v > c.Upper {
			t.Fatalf("sample %g outside [%g, %g]", v, c.Lower, c.Upper)
		}
	}
}

func TestClippedNormalZeroStdDev(t *testing.T) {
	src := rand.NewSource(1)
	assert.Equal(t, 0.04, ClippedNormal{Mean: 0.04, StdDev: 0, Lower: 0, Upper: 1}.Sample(src))
	assert.Equal(t, 0.03, ClippedNormal{Mean: 0.01, StdDev: 0, Lower: 0.03, Upper: 1}.Sample(src))
}

func TestClippedNormalValidate(t *testing.T) {
	tests := []struct {
		name    string
		dist    ClippedNormal
		wantErr bool
	}{
		{"valid", ClippedNormal{Mean: 0, StdDev: 1, Lower: -1, Upper: 1}, false},
		{"degenerate bounds", ClippedNormal{Mean: 0, StdDev: 1, Lower: 1, Upper: 1}, false},
		{"negative std dev", ClippedNormal{StdDev: -1}, true},
		{"inverted bounds", ClippedNormal{StdDev: 1, Lower: 2, Upper: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dist.Validate("x")
			if tt.wantErr {
				assert.True(t, errors.Is(err, uwerr.ErrInvalidDistributionConfig), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDrawSeedIndependentStreams(t *testing.T) {
	seen := map[uint64]bool{}
	for i := 0; i < 1000; i++ {
		s := drawSeed(42, i)
		assert.False(t, seen[s], "duplicate stream seed at draw %d", i)
		seen[s] = true
	}
	assert.NotEqual(t, drawSeed(1, 0), drawSeed(2, 0))
}

func TestPerturbShiftsVacancySchedule(t *testing.T) {
	d := testutil.SampleDeal()
	d.Rental.VacancySchedule = make([]float64, d.HoldMonths)
	d.Rental.VacancySchedule[1] = 0.5

	p := Perturb(d, 0.03, 0.10, 0.07, 0.06)

	assert.Equal(t, 0.10, p.Rental.VacancyRate)
	assert.InDelta(t, 0.05, p.Rental.VacancySchedule[0], 1e-12)
	assert.InDelta(t, 0.55, p.Rental.VacancySchedule[1], 1e-12)
	assert.Equal(t, 0.03, p.Rental.GrowthRate)
	assert.Equal(t, 0.07, p.Exit.CapRate)
	assert.Equal(t, 0.06, p.Financing.InterestRate)
	assert.Equal(t, 0.0, d.Rental.VacancySchedule[0], "base is untouched")
}
