// Package forecast drives a complete underwriting run from a configuration:
// the base case, the stress scenarios, the Monte Carlo simulation and the
// break-even solver, with optional persistence of the results.
package forecast

import (
	"context"
	"fmt"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/config"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/montecarlo"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/optimizer"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/recorder"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/scenario"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/underwriting"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/optimization"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/output"
	"go.uber.org/zap"
)

// Options selects which stages run.
type Options struct {
	// Scenarios runs the configured stress scenarios.
	Scenarios bool
	// MonteCarlo runs the simulation, using the standard model when the
	// configuration has no monteCarlo section.
	MonteCarlo bool

	// Solve runs the configured break-even solves, or a purchase price solve
	// when none are configured.
	Solve bool
	// SolveFields replaces the configured solves with one default-bounded
	// solve per field.
	SolveFields []string

	// Draws, Seed and Workers override the configured simulation when set.
	Draws   int
	Seed    *uint64
	Workers int

	// Recorder persists the run. Nil disables recording.
	Recorder recorder.Recorder
}

// GetForecast underwrites the configured deal and runs the selected stages.
// When the simulation is cancelled the partial report is returned together
// with the error.
func GetForecast(ctx context.Context, logger *zap.Logger, conf config.Configuration, opts Options) (output.Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	report := output.Report{Warnings: conf.ValidateConfiguration()}

	d, err := conf.ToDeal()
	if err != nil {
		return report, err
	}

	pipeline := underwriting.NewEngine(logger)
	base, err := pipeline.Run(d)
	if err != nil {
		return report, fmt.Errorf("base case: %w", err)
	}
	report.Base = base

	if opts.Scenarios {
		scenarios := conf.ToScenarios()
		logger.Debug(fmt.Sprintf("running %d scenarios", len(scenarios)),
			zap.String("op", "forecast.GetForecast"),
		)
		res, err := scenario.NewEngine(logger, pipeline, opts.Workers).Run(ctx, d, scenarios)
		if err != nil {
			return report, err
		}
		report.Scenarios = res
	}

	var simErr error
	if opts.MonteCarlo {
		cfg := conf.ToMonteCarlo(d)
		if conf.MonteCarlo == nil {
			// No section at all: the standard model is reproducible by default.
			cfg = montecarlo.DefaultConfig(d)
		}
		if opts.Draws > 0 {
			cfg.Draws = opts.Draws
		}
		if opts.Seed != nil {
			seed := *opts.Seed
			cfg.Seed = &seed
		}
		if opts.Workers > 0 {
			cfg.Workers = opts.Workers
		}

		res, err := montecarlo.NewEngine(logger, pipeline).Run(ctx, d, cfg)
		if res == nil {
			return report, err
		}
		report.Simulation = res
		simErr = err
	}

	if opts.Solve && simErr == nil {
		solutions, err := solve(ctx, logger, pipeline, d, directives(conf, opts))
		if err != nil {
			return report, err
		}
		report.Solutions = solutions
	}

	if opts.Recorder != nil {
		record(logger, opts.Recorder, &report)
	}
	return report, simErr
}

func directives(conf config.Configuration, opts Options) []optimizer.Directive {
	if len(opts.SolveFields) > 0 {
		out := make([]optimizer.Directive, len(opts.SolveFields))
		for i, field := range opts.SolveFields {
			out[i] = optimizer.Directive{Field: field}
		}
		return out
	}
	if configured := conf.ToDirectives(); len(configured) > 0 {
		return configured
	}
	return []optimizer.Directive{{Field: string(optimizer.FieldPurchasePrice)}}
}

func solve(ctx context.Context, logger *zap.Logger, pipeline *underwriting.Engine, d deal.Deal, directives []optimizer.Directive) ([]optimization.Summary, error) {
	runner := optimizer.NewRunner(logger, pipeline)
	out := make([]optimization.Summary, 0, len(directives))
	for _, directive := range directives {
		summary, err := runner.Run(ctx, d, directive)
		if err != nil {
			return nil, fmt.Errorf("solve %s: %w", directive.Field, err)
		}
		out = append(out, summary)
	}
	return out, nil
}

// record persists the report. Failures are logged and never fail the run.
func record(logger *zap.Logger, rec recorder.Recorder, report *output.Report) {
	runID, err := rec.RecordRun(report.Base)
	if err != nil {
		logger.Warn("failed to record run", zap.String("op", "forecast.record"), zap.Error(err))
		return
	}
	if runID == "" {
		return
	}
	report.RunID = runID

	if report.Scenarios != nil {
		if err := rec.RecordScenarios(runID, report.Scenarios); err != nil {
			logger.Warn("failed to record scenarios",
				zap.String("op", "forecast.record"),
				zap.String("run", runID),
				zap.Error(err),
			)
		}
	}
	if report.Simulation != nil {
		if err := rec.RecordSimulation(runID, report.Simulation); err != nil {
			logger.Warn("failed to record simulation",
				zap.String("op", "forecast.record"),
				zap.String("run", runID),
				zap.Error(err),
			)
		}
	}
	if len(report.Solutions) > 0 {
		if err := rec.RecordSolutions(runID, report.Solutions); err != nil {
			logger.Warn("failed to record break-even solves",
				zap.String("op", "forecast.record"),
				zap.String("run", runID),
				zap.Error(err),
			)
		}
	}
}
