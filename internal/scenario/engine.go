// Package scenario runs named deterministic stress tests against a base deal.
//
// Every scenario is a clone of the base deal with an Override applied, run
// through the same underwriting pipeline as the base case. Scenarios share no
// mutable state and may run concurrently; results are returned in the order
// the scenarios were given, with the base case first.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/underwriting"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/metrics"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BaseName labels the unmodified base case.
const BaseName = "base"

// Error ties a pipeline failure to the scenario that raised it.
type Error struct {
	Scenario string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("scenario %q: %v", e.Scenario, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Outcome is the result of one scenario. Metrics is nil when the scenario
// failed, in which case Error and ErrorKind describe why.
type Outcome struct {
	Name      string          `json:"name"`
	Override  Override        `json:"override"`
	Metrics   *metrics.Result `json:"metrics,omitempty"`
	IRRDelta  float64         `json:"irrDelta"`
	NPVDelta  float64         `json:"npvDelta"`
	Error     string          `json:"error,omitempty"`
	ErrorKind string          `json:"errorKind,omitempty"`

	err error
}

// Err returns the failure of this scenario, if any.
func (o Outcome) Err() error {
	return o.err
}

// Failed reports whether the scenario failed.
func (o Outcome) Failed() bool {
	return o.err != nil
}

// Result holds the base run and one Outcome per scenario, base first.
type Result struct {
	Base     *underwriting.Result `json:"-"`
	Outcomes []Outcome            `json:"scenarios"`
	Failed   int                  `json:"failed"`
}

// Find returns the outcome with the given name, or nil.
func (r *Result) Find(name string) *Outcome {
	for i := range r.Outcomes {
		if r.Outcomes[i].Name == name {
			return &r.Outcomes[i]
		}
	}
	return nil
}

// Engine runs scenarios through an underwriting pipeline.
type Engine struct {
	logger   *zap.Logger
	pipeline *underwriting.Engine
	workers  int
}

// NewEngine creates a scenario engine. A nil pipeline uses the default one;
// workers <= 0 uses GOMAXPROCS.
func NewEngine(logger *zap.Logger, pipeline *underwriting.Engine, workers int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipeline == nil {
		pipeline = underwriting.NewEngine(logger)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{logger: logger, pipeline: pipeline, workers: workers}
}

// Run underwrites base and every scenario. A failing base case fails the
// whole run; a failing scenario is recorded on its Outcome and counted.
func (e *Engine) Run(ctx context.Context, base deal.Deal, scenarios []Scenario) (*Result, error) {
	if err := validateNames(scenarios); err != nil {
		return nil, err
	}

	baseRun, err := e.pipeline.Run(Override{}.Apply(base))
	if err != nil {
		return nil, &Error{Scenario: BaseName, Err: err}
	}

	res := &Result{
		Base:     baseRun,
		Outcomes: make([]Outcome, len(scenarios)+1),
	}
	baseMetrics := baseRun.Metrics
	res.Outcomes[0] = Outcome{Name: BaseName, Metrics: &baseMetrics}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res.Outcomes[i+1] = e.runOne(base, sc, baseMetrics)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scenario run cancelled: %w", err)
	}

	for _, o := range res.Outcomes {
		if o.Failed() {
			res.Failed++
		}
	}

	e.logger.Info("scenario run complete",
		zap.String("op", "scenario.Run"),
		zap.Int("scenarios", len(scenarios)),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (e *Engine) runOne(base deal.Deal, sc Scenario, baseMetrics metrics.Result) Outcome {
	out := Outcome{Name: sc.Name, Override: sc.Override}

	run, err := e.pipeline.Run(sc.Override.Apply(base))
	if err != nil {
		out.err = &Error{Scenario: sc.Name, Err: err}
		out.Error = out.err.Error()
		out.ErrorKind = uwerr.KindName(err)
		e.logger.Warn("scenario failed",
			zap.String("op", "scenario.Run"),
			zap.String("scenario", sc.Name),
			zap.String("kind", out.ErrorKind),
			zap.Error(err),
		)
		return out
	}

	m := run.Metrics
	out.Metrics = &m
	out.IRRDelta = m.IRR - baseMetrics.IRR
	out.NPVDelta = m.NPV - baseMetrics.NPV
	return out
}

func validateNames(scenarios []Scenario) error {
	seen := map[string]bool{BaseName: true}
	for i, sc := range scenarios {
		field := fmt.Sprintf("scenarios[%d].name", i)
		if sc.Name == "" {
			return uwerr.New(uwerr.ErrInvalidAssumptions, field, 0, "scenario name is required")
		}
		if seen[sc.Name] {
			return uwerr.New(uwerr.ErrInvalidAssumptions, field, 0, "duplicate or reserved scenario name %q", sc.Name)
		}
		seen[sc.Name] = true
	}
	return nil
}

// IsScenarioError reports whether err came from a named scenario and returns
// that name.
func IsScenarioError(err error) (string, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Scenario, true
	}
	return "", false
}
