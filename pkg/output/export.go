package output

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/montecarlo"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/scenario"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/cashflow"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/loans"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/metrics"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/optimization"
)

var errNoBase = errors.New("report has no base result")

// Payload is the machine-readable export of a report. Undefined ratios are
// encoded as null.
type Payload struct {
	RunID        string                 `json:"runId,omitempty"`
	Warnings     []string               `json:"warnings,omitempty"`
	Deal         deal.Deal              `json:"deal"`
	Metrics      metrics.Result         `json:"metrics"`
	Projection   cashflow.Projection    `json:"cashFlows"`
	DebtSchedule *loans.Schedule        `json:"debtSchedule,omitempty"`
	Scenarios    *scenario.Result       `json:"scenarios,omitempty"`
	MonteCarlo   *montecarlo.Result     `json:"monteCarlo,omitempty"`
	BreakEven    []optimization.Summary `json:"breakEven,omitempty"`
}

// Export builds the payload for report.
func Export(report Report) (Payload, error) {
	if report.Base == nil {
		return Payload{}, errNoBase
	}
	p := Payload{
		RunID:      report.RunID,
		Warnings:   report.Warnings,
		Deal:       report.Base.Deal,
		Metrics:    report.Base.Metrics,
		Projection: report.Base.Projection,
		Scenarios:  report.Scenarios,
		MonteCarlo: report.Simulation,
		BreakEven:  report.Solutions,
	}
	if report.Base.Schedule.Len() > 0 {
		schedule := report.Base.Schedule
		p.DebtSchedule = &schedule
	}
	return p, nil
}

// JSONFormat writes the export payload as indented JSON.
func JSONFormat(w io.Writer, report Report) error {
	payload, err := Export(report)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// Write renders report in the named format. Unknown formats fall back to
// pretty output.
func Write(w io.Writer, outputFormat string, report Report) error {
	switch outputFormat {
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	default:
		return PrettyFormat(w, report)
	}
}
