// Package montecarlo runs randomized underwriting simulations.
//
// Each draw samples its own assumption overrides from configured
// clipped-normal distributions and runs the perturbed deal through the same
// pipeline as the base case. Draws use independent random streams derived
// from the run seed and the draw index, so a seed reproduces the same result
// regardless of how many workers run it.
package montecarlo

import (
	"context"
	"fmt"
	"time"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/underwriting"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/mathutil"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// Draw is one successful simulation: the sampled inputs and the outcome.
type Draw struct {
	Index          int     `json:"index"`
	RentGrowth     float64 `json:"rentGrowth"`
	Vacancy        float64 `json:"vacancy"`
	ExitCapRate    float64 `json:"exitCapRate"`
	InterestRate   float64 `json:"interestRate"`
	IRR            float64 `json:"irr"`
	NPV            float64 `json:"npv"`
	EquityMultiple float64 `json:"equityMultiple"`
}

// DrawError ties a pipeline failure to the draw that raised it.
type DrawError struct {
	Index int
	Err   error
}

func (e *DrawError) Error() string {
	return fmt.Sprintf("draw %d: %v", e.Index, e.Err)
}

func (e *DrawError) Unwrap() error { return e.Err }

// Exclusion records a draw left out of the distributions.
type Exclusion struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Result is the output of a simulation. Distributions and probabilities are
// computed over the successful completed draws only.
type Result struct {
	Seed       uint64        `json:"seed"`
	Requested  int           `json:"requested"`
	Completed  int           `json:"completed"`
	Excluded   int           `json:"excluded"`
	Exclusions []Exclusion   `json:"exclusions,omitempty"`
	Draws      []Draw        `json:"draws"`
	IRR        Summary       `json:"irr"`
	NPV        Summary       `json:"npv"`
	Downside   []Probability `json:"downside"`
	Cancelled  bool          `json:"cancelled"`
}

// Engine runs simulations through an underwriting pipeline.
type Engine struct {
	logger   *zap.Logger
	pipeline *underwriting.Engine
}

// NewEngine creates a Monte Carlo engine. A nil pipeline uses the default one.
func NewEngine(logger *zap.Logger, pipeline *underwriting.Engine) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipeline == nil {
		pipeline = underwriting.NewEngine(logger)
	}
	return &Engine{logger: logger, pipeline: pipeline}
}

type slot struct {
	done bool
	draw Draw
	err  error
}

// Run simulates cfg.Draws perturbations of base. Configuration errors and an
// invalid base deal fail before any draw runs. A failing draw is excluded and
// reported in Exclusions.
//
// ctx is checked between draws. When it is cancelled Run returns the partial
// Result over the draws that completed, with Cancelled set, together with the
// context's error.
func (e *Engine) Run(ctx context.Context, base deal.Deal, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults(base)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("base deal: %w", err)
	}

	seed := uint64(time.Now().UnixNano())
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	start := time.Now()
	slots := make([]slot, cfg.Draws)

	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Draws; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			slots[i] = e.runDraw(base, cfg, seed, i)
			return nil
		})
	}
	_ = g.Wait()

	res := aggregate(slots, cfg, seed)
	res.Cancelled = res.Completed < res.Requested

	e.logger.Info("monte carlo run complete",
		zap.String("op", "montecarlo.Run"),
		zap.Uint64("seed", seed),
		zap.Int("requested", res.Requested),
		zap.Int("completed", res.Completed),
		zap.Int("excluded", res.Excluded),
		zap.Bool("cancelled", res.Cancelled),
		zap.Duration("elapsed", time.Since(start)),
	)

	if res.Cancelled {
		return res, fmt.Errorf("monte carlo cancelled after %d of %d draws: %w", res.Completed, res.Requested, ctx.Err())
	}
	return res, nil
}

// Perturb applies one draw's samples to a copy of base. Vacancy replaces the
// flat rate and shifts every vacancy schedule entry by the same amount.
func Perturb(base deal.Deal, rentGrowth, vacancy, exitCapRate, interestRate float64) deal.Deal {
	d := base.Clone()
	d.Rental.GrowthRate = rentGrowth
	d.Exit.CapRate = exitCapRate
	d.Financing.InterestRate = interestRate

	shift := vacancy - base.Rental.VacancyRate
	d.Rental.VacancyRate = vacancy
	if shift != 0 {
		for i, v := range d.Rental.VacancySchedule {
			d.Rental.VacancySchedule[i] = mathutil.Clamp(v+shift, 0, 1)
		}
	}
	return d
}

func (e *Engine) runDraw(base deal.Deal, cfg Config, seed uint64, index int) slot {
	src := rand.NewSource(drawSeed(seed, index))

	draw := Draw{
		Index:        index,
		RentGrowth:   base.Rental.GrowthRate,
		Vacancy:      base.Rental.VacancyRate,
		ExitCapRate:  base.Exit.CapRate,
		InterestRate: base.Financing.InterestRate,
	}
	targets := []*float64{&draw.RentGrowth, &draw.Vacancy, &draw.ExitCapRate, &draw.InterestRate}
	for i, v := range cfg.variables() {
		if v.dist != nil {
			*targets[i] = v.dist.Sample(src)
		}
	}

	run, err := e.pipeline.Run(Perturb(base, draw.RentGrowth, draw.Vacancy, draw.ExitCapRate, draw.InterestRate))
	if err != nil {
		e.logger.Debug("draw excluded",
			zap.String("op", "montecarlo.Run"),
			zap.Int("draw", index),
			zap.String("kind", uwerr.KindName(err)),
			zap.Error(err),
		)
		return slot{done: true, draw: draw, err: &DrawError{Index: index, Err: err}}
	}

	draw.IRR = run.Metrics.IRR
	draw.NPV = run.Metrics.NPV
	draw.EquityMultiple = run.Metrics.EquityMultiple
	return slot{done: true, draw: draw}
}

func aggregate(slots []slot, cfg Config, seed uint64) *Result {
	res := &Result{
		Seed:      seed,
		Requested: len(slots),
		Draws:     make([]Draw, 0, len(slots)),
	}

	var irrs, npvs []float64
	for _, s := range slots {
		if !s.done {
			continue
		}
		res.Completed++
		if s.err != nil {
			res.Excluded++
			res.Exclusions = append(res.Exclusions, Exclusion{
				Index: s.draw.Index,
				Kind:  uwerr.KindName(s.err),
				Error: s.err.Error(),
			})
			continue
		}
		res.Draws = append(res.Draws, s.draw)
		irrs = append(irrs, s.draw.IRR)
		npvs = append(npvs, s.draw.NPV)
	}

	res.IRR = Summarize(irrs, cfg.Percentiles)
	res.NPV = Summarize(npvs, cfg.Percentiles)
	for _, th := range cfg.IRRThresholds {
		res.Downside = append(res.Downside, BreachProbability("irr", irrs, th))
	}
	for _, th := range cfg.NPVThresholds {
		res.Downside = append(res.Downside, BreachProbability("npv", npvs, th))
	}
	return res
}
