// Package output provides utilities for formatting and displaying underwriting results.
package output

import (
	"fmt"
	"io"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/montecarlo"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/scenario"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/underwriting"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/format"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report gathers everything one invocation produced. Only Base is required.
type Report struct {
	RunID      string
	Warnings   []string
	Base       *underwriting.Result
	Scenarios  *scenario.Result
	Simulation *montecarlo.Result
	Solutions  []optimization.Summary
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, report Report) error {
	if report.Base == nil {
		return errNoBase
	}
	p := message.NewPrinter(language.BritishEnglish)
	res := report.Base
	m := res.Metrics
	proj := res.Projection

	for _, warning := range report.Warnings {
		_, _ = fmt.Fprintf(w, "WARNING: %s\n", warning)
	}
	if len(report.Warnings) > 0 {
		_, _ = fmt.Fprintln(w)
	}

	name := res.Deal.Name
	if name == "" {
		name = "deal"
	}
	_, _ = fmt.Fprintf(w, "--- Underwriting for %s ---\n", name)
	_, _ = fmt.Fprintf(w, "Purchase price      %s\n", format.Currency(proj.PurchasePrice))
	_, _ = fmt.Fprintf(w, "Loan amount         %s\n", format.Currency(proj.LoanAmount))
	_, _ = fmt.Fprintf(w, "Acquisition costs   %s\n", format.Currency(proj.AcquisitionCosts))
	_, _ = fmt.Fprintf(w, "Financing fee       %s\n", format.Currency(proj.FinancingFee))
	if res.Schedule.Len() > 0 {
		_, _ = fmt.Fprintf(w, "Interest over term  %s\n", format.Currency(res.Schedule.TotalInterest()))
	}
	_, _ = fmt.Fprintf(w, "Equity invested     %s\n", format.Currency(m.EquityInvested))
	_, _ = fmt.Fprintf(w, "Exit value          %s\n", format.Currency(proj.ExitValue))
	_, _ = fmt.Fprintf(w, "Net sale proceeds   %s\n", format.Currency(proj.NetSaleProceeds))
	if proj.TotalCapEx > 0 {
		_, _ = fmt.Fprintf(w, "Capital expenditure %s\n", format.Currency(proj.TotalCapEx))
	}
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "IRR                 %s\n", format.Percent(m.IRR))
	_, _ = fmt.Fprintf(w, "NPV @ %-13s %s\n", format.Percent(m.DiscountRate), format.Currency(m.NPV))
	_, _ = fmt.Fprintf(w, "Equity multiple     %.2fx\n", m.EquityMultiple)
	_, _ = fmt.Fprintf(w, "Avg cash-on-cash    %s\n", format.RatioPercent(m.AverageCashOnCash))
	_, _ = fmt.Fprintf(w, "Min DSCR            %s\n", format.Multiple(m.MinDSCR))
	_, _ = fmt.Fprintf(w, "LTV at exit         %s\n", format.RatioPercent(m.LTVExit))
	_, _ = fmt.Fprintf(w, "Profit              %s\n", format.Currency(m.Profit))
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Year | Months | NOI          | Debt service | Cash flow     | Cash-on-cash | DSCR\n")
	_, _ = fmt.Fprintf(w, "____ | ______ | ____________ | ____________ | _____________ | ____________ | _____\n")
	for _, y := range proj.Annual {
		coc, dscr := "", ""
		if y.Year >= 1 && y.Year-1 < len(m.CashOnCash) {
			coc = format.RatioPercent(m.CashOnCash[y.Year-1])
		}
		if y.Year >= 1 && y.Year-1 < len(m.DSCR) {
			dscr = format.Multiple(m.DSCR[y.Year-1])
		}
		_, _ = p.Fprintf(w, "%4d | %6d | %12.2f | %12.2f | %13.2f | %12s | %s\n",
			y.Year, y.Months, y.NOI, y.DebtService, y.LeveredCashFlow, coc, dscr)
	}

	if report.Scenarios != nil {
		_, _ = fmt.Fprintf(w, "\n--- Scenarios ---\n")
		_, _ = fmt.Fprintf(w, "%-32s | %-9s | %-14s | %-9s | %s\n", "Scenario", "IRR", "NPV", "ΔIRR", "ΔNPV")
		for _, o := range report.Scenarios.Outcomes {
			if o.Failed() {
				_, _ = fmt.Fprintf(w, "%-32s | failed: %s (%s)\n", o.Name, o.ErrorKind, o.Error)
				continue
			}
			_, _ = p.Fprintf(w, "%-32s | %-9s | %14.2f | %-9s | %.2f\n",
				o.Name, format.Percent(o.Metrics.IRR), o.Metrics.NPV, format.Percent(o.IRRDelta), o.NPVDelta)
		}
		if report.Scenarios.Failed > 0 {
			_, _ = fmt.Fprintf(w, "%d scenario(s) failed\n", report.Scenarios.Failed)
		}
	}

	if sim := report.Simulation; sim != nil {
		_, _ = fmt.Fprintf(w, "\n--- Monte Carlo ---\n")
		_, _ = fmt.Fprintf(w, "Seed %d, %d of %d draws completed, %d excluded", sim.Seed, sim.Completed, sim.Requested, sim.Excluded)
		if sim.Cancelled {
			_, _ = fmt.Fprintf(w, " (cancelled)")
		}
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "IRR  mean %s  sd %s", format.Percent(sim.IRR.Mean), format.Percent(sim.IRR.StdDev))
		for _, pc := range sim.IRR.Percentiles {
			_, _ = fmt.Fprintf(w, "  p%g %s", pc.P, format.Percent(pc.Value))
		}
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "NPV  mean %s  sd %s", format.Currency(sim.NPV.Mean), format.Currency(sim.NPV.StdDev))
		for _, pc := range sim.NPV.Percentiles {
			_, _ = fmt.Fprintf(w, "  p%g %s", pc.P, format.Currency(pc.Value))
		}
		_, _ = fmt.Fprintln(w)
		for _, d := range sim.Downside {
			threshold := format.Currency(d.Threshold)
			if d.Metric == "irr" {
				threshold = format.Percent(d.Threshold)
			}
			_, _ = fmt.Fprintf(w, "P(%s < %s) = %s\n", d.Metric, threshold, format.Percent(d.Probability))
		}
	}

	if len(report.Solutions) > 0 {
		_, _ = fmt.Fprintf(w, "\n--- Break-even ---\n")
		for _, sol := range report.Solutions {
			status := "converged"
			if !sol.Converged {
				status = "not converged"
			}
			_, _ = fmt.Fprintf(w, "%-14s %s -> %s at hurdle %s (IRR %s, %d iterations, %s)\n",
				sol.Field, sol.OriginalDisplay, sol.ValueDisplay, format.Percent(sol.Hurdle),
				format.RatioPercent(sol.IRR), sol.Iterations, status)
			for _, note := range sol.Notes {
				_, _ = fmt.Fprintf(w, "  note: %s\n", note)
			}
		}
	}

	if report.RunID != "" {
		_, _ = fmt.Fprintf(w, "\nRecorded as run %s\n", report.RunID)
	}
	return nil
}
