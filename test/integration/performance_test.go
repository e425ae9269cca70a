package integration

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/montecarlo"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/scenario"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/underwriting"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/testutil"
	"github.com/stretchr/testify/require"
)

// TestPerformance guards against pathological slowdowns in the full run.
func TestPerformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping performance test in short mode")
	}

	start := time.Now()
	conf := loadExample(t)
	loadTime := time.Since(start)

	start = time.Now()
	report := runAll(t, conf, 1000)
	runTime := time.Since(start)

	t.Logf("load %v, full run with %d draws %v", loadTime, report.Simulation.Completed, runTime)
	if loadTime > time.Second {
		t.Errorf("configuration load took too long: %v", loadTime)
	}
	if runTime > 30*time.Second {
		t.Errorf("full run took too long: %v", runTime)
	}
}

// TestMemoryUsage checks a large simulation does not retain per-draw deals.
func TestMemoryUsage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping memory test in short mode")
	}

	d := testutil.SampleDeal()
	cfg := montecarlo.DefaultConfig(d)
	cfg.Draws = 2000

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	res, err := montecarlo.NewEngine(nil, nil).Run(context.Background(), d, cfg)
	require.NoError(t, err)

	runtime.GC()
	runtime.ReadMemStats(&after)

	retained := int64(after.HeapAlloc) - int64(before.HeapAlloc)
	t.Logf("retained %d bytes for %d draws", retained, len(res.Draws))
	if retained > 64<<20 {
		t.Errorf("simulation retained too much memory: %d bytes", retained)
	}
}

func BenchmarkUnderwrite(b *testing.B) {
	pipeline := underwriting.NewEngine(nil)
	d := testutil.AmortizingDeal()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := pipeline.Run(d); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStandardScenarios(b *testing.B) {
	engine := scenario.NewEngine(nil, nil, 0)
	d := testutil.SampleDeal()
	scenarios := scenario.StandardScenarios()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Run(context.Background(), d, scenarios); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMonteCarlo(b *testing.B) {
	engine := montecarlo.NewEngine(nil, nil)
	d := testutil.SampleDeal()
	cfg := montecarlo.DefaultConfig(d)
	cfg.Draws = 500
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Run(context.Background(), d, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
