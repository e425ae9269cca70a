// Package underwriting runs the deterministic pipeline for a single deal:
// debt schedule, cash-flow projection, exit valuation and return metrics.
//
// Run is a pure function of its input. The scenario and Monte Carlo engines
// call it for every perturbed deal so that all three share one set of math.
package underwriting

import (
	"fmt"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/cashflow"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/datetime"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/loans"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/metrics"
	"go.uber.org/zap"
)

// Result is the base-case output: the debt schedule, the monthly and annual
// cash flows and the metrics, plus the deal they were computed from.
type Result struct {
	Deal       deal.Deal           `json:"deal"`
	Schedule   loans.Schedule      `json:"debtSchedule"`
	Projection cashflow.Projection `json:"cashFlows"`
	Metrics    metrics.Result      `json:"metrics"`
}

// Monthly returns the monthly cash-flow series, month 0 first.
func (r *Result) Monthly() []cashflow.Month {
	return r.Projection.Monthly
}

// Annual returns the annual roll-up, year 0 first.
func (r *Result) Annual() []cashflow.Year {
	return r.Projection.Annual
}

// Engine runs the underwriting pipeline.
type Engine struct {
	logger    *zap.Logger
	generator *loans.AmortizationScheduleGenerator
	solver    metrics.Solver
}

// NewEngine creates an Engine using the default IRR solver.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:    logger,
		generator: loans.NewAmortizationScheduleGenerator(logger),
		solver:    metrics.DefaultSolver(),
	}
}

// WithSolver returns a copy of e that uses solver for IRR.
func (e *Engine) WithSolver(solver metrics.Solver) *Engine {
	c := *e
	c.solver = solver
	return &c
}

// Run underwrites d. The deal is validated first; the returned Result holds
// its own copy of d.
func (e *Engine) Run(d deal.Deal) (*Result, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var schedule loans.Schedule
	if d.Leveraged() {
		var err error
		schedule, err = e.generator.GenerateSchedule(d.LoanTerms())
		if err != nil {
			return nil, fmt.Errorf("debt schedule: %w", err)
		}
		if err := labelSchedule(&schedule, d.StartDate); err != nil {
			return nil, err
		}
	}

	projection, err := cashflow.Project(d, schedule)
	if err != nil {
		return nil, fmt.Errorf("cash flow projection: %w", err)
	}

	summary, err := metrics.Summarize(projection, d.DiscountRate, e.solver)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	e.logger.Debug("underwrote deal",
		zap.String("op", "underwriting.Run"),
		zap.String("deal", d.Name),
		zap.Int("holdMonths", d.HoldMonths),
		zap.Float64("equity", projection.InitialEquity),
		zap.Float64("irr", summary.IRR),
		zap.Float64("npv", summary.NPV),
	)

	return &Result{
		Deal:       d.Clone(),
		Schedule:   schedule,
		Projection: projection,
		Metrics:    summary,
	}, nil
}

func labelSchedule(schedule *loans.Schedule, start string) error {
	if start == "" {
		return nil
	}
	labels, err := datetime.PeriodLabels(start, schedule.Len())
	if err != nil {
		return fmt.Errorf("debt schedule dates: %w", err)
	}
	for i := range schedule.Periods {
		schedule.Periods[i].Date = labels[schedule.Periods[i].Index]
	}
	return nil
}
