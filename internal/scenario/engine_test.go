package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/underwriting"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/testutil"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunIncludesBase(t *testing.T) {
	d := testutil.SampleDeal()
	engine := NewEngine(zap.NewNop(), nil, 4)

	res, err := engine.Run(context.Background(), d, StandardScenarios())
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 10)
	assert.Equal(t, BaseName, res.Outcomes[0].Name)
	assert.Equal(t, 0, res.Failed)

	plain, err := underwriting.NewEngine(nil).Run(d)
	require.NoError(t, err)
	assert.Equal(t, plain.Metrics, *res.Outcomes[0].Metrics)
	assert.Equal(t, 0.0, res.Outcomes[0].IRRDelta)
}

func TestStandardScenariosMoveReturnsDown(t *testing.T) {
	res, err := NewEngine(nil, nil, 0).Run(context.Background(), testutil.SampleDeal(), StandardScenarios())
	require.NoError(t, err)

	for _, o := range res.Outcomes[1:] {
		require.False(t, o.Failed(), "%s: %v", o.Name, o.Err())
		assert.Less(t, o.IRRDelta, 0.0, o.Name)
		assert.Less(t, o.NPVDelta, 0.0, o.Name)
	}

	small := res.Find("Rate shock +50bp")
	large := res.Find("Rate shock +200bp")
	require.NotNil(t, small)
	require.NotNil(t, large)
	assert.Less(t, large.Metrics.IRR, small.Metrics.IRR)
}

func TestRunOrderInsensitive(t *testing.T) {
	d := testutil.AmortizingDeal()
	forward := StandardScenarios()
	reversed := make([]Scenario, len(forward))
	for i, sc := range forward {
		reversed[len(forward)-1-i] = sc
	}

	a, err := NewEngine(nil, nil, 1).Run(context.Background(), d, forward)
	require.NoError(t, err)
	b, err := NewEngine(nil, nil, 8).Run(context.Background(), d, reversed)
	require.NoError(t, err)
	c, err := NewEngine(nil, nil, 3).Run(context.Background(), d, forward)
	require.NoError(t, err)

	for i, sc := range forward {
		assert.Equal(t, sc.Name, a.Outcomes[i+1].Name, "results keep the given order")
		other := b.Find(sc.Name)
		require.NotNil(t, other)
		assert.Equal(t, a.Outcomes[i+1].Metrics, other.Metrics, sc.Name)
		assert.Equal(t, a.Outcomes[i+1], c.Outcomes[i+1], sc.Name)
	}
}

func TestRunRecordsFailures(t *testing.T) {
	scenarios := []Scenario{
		{Name: "cap collapse", Override: Override{ExitCapRateShift: -0.06}},
		{Name: "mild", Override: Override{RentGrowthShift: -0.01}},
	}

	res, err := NewEngine(nil, nil, 2).Run(context.Background(), testutil.SampleDeal(), scenarios)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	failed := res.Find("cap collapse")
	require.NotNil(t, failed)
	assert.True(t, failed.Failed())
	assert.Nil(t, failed.Metrics)
	assert.Equal(t, "InvalidExitParameter", failed.ErrorKind)
	assert.Contains(t, failed.Error, "cap collapse")
	assert.True(t, errors.Is(failed.Err(), uwerr.ErrInvalidExitParameter))

	name, ok := IsScenarioError(failed.Err())
	assert.True(t, ok)
	assert.Equal(t, "cap collapse", name)

	assert.False(t, res.Find("mild").Failed())
}

func TestRunFailingBase(t *testing.T) {
	d := testutil.SampleDeal()
	d.Exit.CapRate = 0

	_, err := NewEngine(nil, nil, 1).Run(context.Background(), d, StandardScenarios())
	require.Error(t, err)
	name, ok := IsScenarioError(err)
	assert.True(t, ok)
	assert.Equal(t, BaseName, name)
	assert.True(t, errors.Is(err, uwerr.ErrInvalidExitParameter))
}

func TestRunRejectsBadNames(t *testing.T) {
	tests := []struct {
		name      string
		scenarios []Scenario
	}{
		{"empty name", []Scenario{{Name: ""}}},
		{"duplicate", []Scenario{{Name: "a"}, {Name: "a"}}},
		{"reserved", []Scenario{{Name: BaseName}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(nil, nil, 1).Run(context.Background(), testutil.SampleDeal(), tt.scenarios)
			assert.True(t, errors.Is(err, uwerr.ErrInvalidAssumptions), "got %v", err)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(nil, nil, 1).Run(ctx, testutil.SampleDeal(), StandardScenarios())
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}
