// Package optimizer solves for the break-even value of a single deal input:
// the purchase price, rent, exit cap rate or interest rate at which the
// levered IRR meets the deal's hurdle.
package optimizer

import (
	"context"
	"fmt"
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/underwriting"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/format"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/mathutil"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/optimization"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/valuation"
	"go.uber.org/zap"
)

// Field names a deal input the solver can move.
type Field string

const (
	FieldPurchasePrice Field = "purchasePrice"
	FieldMonthlyRent   Field = "monthlyRent"
	FieldExitCapRate   Field = "exitCapRate"
	FieldInterestRate  Field = "interestRate"
)

// DefaultMaxIterations bounds the bisection when a directive sets none.
const DefaultMaxIterations = 100

// CanonicalField maps config spellings onto a Field.
func CanonicalField(value string) (Field, error) {
	switch value {
	case "purchasePrice", "purchase-price", "price":
		return FieldPurchasePrice, nil
	case "monthlyRent", "monthly-rent", "rent":
		return FieldMonthlyRent, nil
	case "exitCapRate", "exit-cap-rate", "capRate":
		return FieldExitCapRate, nil
	case "interestRate", "interest-rate", "rate":
		return FieldInterestRate, nil
	default:
		return "", fmt.Errorf("unknown solver field %q", value)
	}
}

func (f Field) monetary() bool {
	return f == FieldPurchasePrice || f == FieldMonthlyRent
}

// Directive describes one solve. Zero bounds, tolerance or iteration count
// take field-specific defaults derived from the deal.
type Directive struct {
	Field         string  `json:"field"`
	Min           float64 `json:"min,omitempty"`
	Max           float64 `json:"max,omitempty"`
	Tolerance     float64 `json:"tolerance,omitempty"`
	MaxIterations int     `json:"maxIterations,omitempty"`
}

// Validate checks the directive independently of any deal.
func (d Directive) Validate() error {
	if _, err := CanonicalField(d.Field); err != nil {
		return err
	}
	if d.Min < 0 || d.Max < 0 {
		return fmt.Errorf("solver bounds must be non-negative")
	}
	if d.Max != 0 && d.Min >= d.Max {
		return fmt.Errorf("solver min %.6g must be below max %.6g", d.Min, d.Max)
	}
	if d.Tolerance < 0 || math.IsNaN(d.Tolerance) {
		return fmt.Errorf("solver tolerance must be non-negative")
	}
	if d.MaxIterations < 0 {
		return fmt.Errorf("solver maxIterations must be non-negative")
	}
	return nil
}

type target struct {
	field     Field
	original  float64
	lower     float64
	upper     float64
	tolerance float64
	maxIter   int
}

type evaluation struct {
	value float64
	irr   float64
	err   error
}

func (e evaluation) feasible(hurdle float64) bool {
	return e.err == nil && e.irr >= hurdle
}

func (e evaluation) headroom(hurdle float64) float64 {
	if e.err != nil {
		return math.Inf(-1)
	}
	return e.irr - hurdle
}

// Runner evaluates perturbed deals through the underwriting pipeline.
type Runner struct {
	logger *zap.Logger
	engine *underwriting.Engine
}

// NewRunner constructs a Runner. A nil engine uses the default pipeline.
func NewRunner(logger *zap.Logger, engine *underwriting.Engine) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = underwriting.NewEngine(logger)
	}
	return &Runner{logger: logger, engine: engine}
}

// Hurdle returns the IRR the solver targets for d.
func Hurdle(d deal.Deal) float64 {
	if d.HurdleRate > 0 {
		return d.HurdleRate
	}
	return constants.DefaultHurdleIRR
}

// Run solves directive against d. The deal itself is never modified.
// When the hurdle is met at both bounds or at neither, the closest bound is
// reported with Converged false and a note.
func (r *Runner) Run(ctx context.Context, d deal.Deal, directive Directive) (optimization.Summary, error) {
	if err := directive.Validate(); err != nil {
		return optimization.Summary{}, err
	}
	tgt, err := newTarget(d, directive)
	if err != nil {
		return optimization.Summary{}, err
	}
	hurdle := Hurdle(d)

	originalEval := r.evaluate(d, tgt.field, tgt.original)
	lowerEval := r.evaluate(d, tgt.field, tgt.lower)
	upperEval := r.evaluate(d, tgt.field, tgt.upper)

	summary := optimization.Summary{
		Field:           string(tgt.field),
		Original:        tgt.original,
		OriginalDisplay: display(tgt.field, tgt.original),
		Lower:           tgt.lower,
		Upper:           tgt.upper,
		Hurdle:          hurdle,
		OriginalIRR:     irrRatio(originalEval),
	}

	lowerOK := lowerEval.feasible(hurdle)
	upperOK := upperEval.feasible(hurdle)

	var final evaluation
	switch {
	case !lowerOK && !upperOK:
		final = upperEval
		if lowerEval.headroom(hurdle) > upperEval.headroom(hurdle) {
			final = lowerEval
		}
		summary.Notes = append(summary.Notes, fmt.Sprintf(
			"unable to reach hurdle IRR %s within bounds %s to %s",
			format.Percent(hurdle), display(tgt.field, tgt.lower), display(tgt.field, tgt.upper)))
	case lowerOK && upperOK:
		// Report the bound with the least headroom: the most aggressive
		// value that still clears the hurdle.
		final = upperEval
		if lowerEval.headroom(hurdle) < upperEval.headroom(hurdle) {
			final = lowerEval
		}
		summary.Notes = append(summary.Notes, fmt.Sprintf(
			"hurdle IRR %s is met across bounds %s to %s",
			format.Percent(hurdle), display(tgt.field, tgt.lower), display(tgt.field, tgt.upper)))
	default:
		feasible, infeasible := lowerEval, upperEval
		if upperOK {
			feasible, infeasible = upperEval, lowerEval
		}
		for summary.Iterations < tgt.maxIter && !mathutil.WithinTolerance(infeasible.value, feasible.value, tgt.tolerance) {
			if err := ctx.Err(); err != nil {
				return optimization.Summary{}, fmt.Errorf("solver cancelled after %d iterations: %w", summary.Iterations, err)
			}
			mid := feasible.value + (infeasible.value-feasible.value)/2
			if mid == feasible.value || mid == infeasible.value {
				break
			}
			evalMid := r.evaluate(d, tgt.field, mid)
			summary.Iterations++
			if evalMid.feasible(hurdle) {
				feasible = evalMid
			} else {
				infeasible = evalMid
			}
		}
		final = feasible
		summary.Converged = mathutil.WithinTolerance(infeasible.value, feasible.value, tgt.tolerance)
		if !summary.Converged {
			summary.Notes = append(summary.Notes, fmt.Sprintf(
				"stopped after %d iterations with bracket %s to %s",
				summary.Iterations, display(tgt.field, feasible.value), display(tgt.field, infeasible.value)))
		}
	}

	if final.err != nil {
		summary.Notes = append(summary.Notes, fmt.Sprintf("underwriting failed at %s: %s",
			display(tgt.field, final.value), uwerr.KindName(final.err)))
	}
	summary.Value = final.value
	summary.ValueDisplay = display(tgt.field, final.value)
	summary.IRR = irrRatio(final)
	summary.Headroom = mathutil.Ratio(final.headroom(hurdle))
	if final.err != nil {
		summary.Headroom = mathutil.Unbounded
	}

	r.logger.Info("solver adjusted deal field",
		zap.String("op", "optimizer.Run"),
		zap.String("field", summary.Field),
		zap.Float64("originalNumeric", summary.Original),
		zap.String("originalDisplay", summary.OriginalDisplay),
		zap.Float64("optimizedNumeric", summary.Value),
		zap.String("optimizedDisplay", summary.ValueDisplay),
		zap.Float64("hurdle", hurdle),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)
	return summary, nil
}

func (r *Runner) evaluate(d deal.Deal, field Field, value float64) evaluation {
	perturbed := d.Clone()
	setField(&perturbed, field, value)
	res, err := r.engine.Run(perturbed)
	if err != nil {
		return evaluation{value: value, irr: math.NaN(), err: err}
	}
	return evaluation{value: value, irr: res.Metrics.IRR}
}

func newTarget(d deal.Deal, directive Directive) (target, error) {
	field, _ := CanonicalField(directive.Field)
	t := target{
		field:     field,
		original:  fieldValue(d, field),
		lower:     directive.Min,
		upper:     directive.Max,
		tolerance: directive.Tolerance,
		maxIter:   directive.MaxIterations,
	}

	switch field {
	case FieldExitCapRate:
		if d.Exit.Method != valuation.CapRate {
			return target{}, fmt.Errorf("exit cap rate cannot be solved for exit method %q", d.Exit.Method)
		}
	case FieldInterestRate:
		if !d.Leveraged() {
			return target{}, fmt.Errorf("interest rate cannot be solved for an unleveraged deal")
		}
	}

	if t.upper == 0 {
		if field.monetary() {
			t.lower, t.upper = t.original*0.25, t.original*4
		} else {
			t.lower, t.upper = 0.0025, 0.25
		}
		if directive.Min > 0 {
			t.lower = directive.Min
		}
		if t.lower >= t.upper {
			return target{}, fmt.Errorf("solver min %.6g must be below default max %.6g", t.lower, t.upper)
		}
	}
	if t.tolerance == 0 {
		if field.monetary() {
			t.tolerance = constants.CurrencyTolerance
		} else {
			t.tolerance = constants.BasisPoint / 100
		}
	}
	if t.maxIter == 0 {
		t.maxIter = DefaultMaxIterations
	}
	return t, nil
}

func fieldValue(d deal.Deal, field Field) float64 {
	switch field {
	case FieldPurchasePrice:
		return d.PurchasePrice
	case FieldMonthlyRent:
		return d.Rental.MonthlyRent
	case FieldExitCapRate:
		return d.Exit.CapRate
	default:
		return d.Financing.InterestRate
	}
}

func setField(d *deal.Deal, field Field, value float64) {
	switch field {
	case FieldPurchasePrice:
		d.PurchasePrice = value
	case FieldMonthlyRent:
		d.Rental.MonthlyRent = value
	case FieldExitCapRate:
		d.Exit.CapRate = value
	default:
		d.Financing.InterestRate = value
	}
}

func display(field Field, value float64) string {
	if field.monetary() {
		return format.Currency(value)
	}
	return format.Percent(value)
}

func irrRatio(e evaluation) mathutil.Ratio {
	if e.err != nil {
		return mathutil.Unbounded
	}
	return mathutil.Ratio(e.irr)
}
