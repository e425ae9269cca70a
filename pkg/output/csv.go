package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/montecarlo"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/scenario"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/cashflow"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/loans"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/mathutil"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/optimization"
)

// CsvFormat outputs every table in the report in comma-separated value
// format. Tables are separated by a blank line and introduced by a
// "# <name>" comment line.
func CsvFormat(w io.Writer, report Report) error {
	if report.Base == nil {
		return errNoBase
	}
	sections := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"annual cash flow", func(w io.Writer) error { return WriteAnnualCSV(w, report.Base.Annual()) }},
		{"debt schedule", func(w io.Writer) error { return WriteDebtScheduleCSV(w, report.Base.Schedule) }},
	}
	if report.Scenarios != nil {
		sections = append(sections, struct {
			name  string
			write func(io.Writer) error
		}{"scenarios", func(w io.Writer) error { return WriteScenariosCSV(w, report.Scenarios) }})
	}
	if report.Simulation != nil {
		sections = append(sections, struct {
			name  string
			write func(io.Writer) error
		}{"monte carlo draws", func(w io.Writer) error { return WriteDrawsCSV(w, report.Simulation) }})
	}
	if len(report.Solutions) > 0 {
		sections = append(sections, struct {
			name  string
			write func(io.Writer) error
		}{"break-even", func(w io.Writer) error { return WriteSolutionsCSV(w, report.Solutions) }})
	}

	for i, s := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "# "+s.name+"\n"); err != nil {
			return err
		}
		if err := s.write(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteAnnualCSV writes the annual roll-up, year 0 first.
func WriteAnnualCSV(w io.Writer, years []cashflow.Year) error {
	rows := [][]string{{
		"year", "months", "gross_rent", "vacancy_loss", "effective_rent", "operating_expenses", "noi",
		"interest", "principal", "balloon", "debt_service", "capex", "operating_cash_flow", "sale_proceeds", "levered_cash_flow",
	}}
	for _, y := range years {
		rows = append(rows, []string{
			strconv.Itoa(y.Year), strconv.Itoa(y.Months),
			money(y.GrossRent), money(y.VacancyLoss), money(y.EffectiveRent), money(y.OperatingExpenses), money(y.NOI),
			money(y.Interest), money(y.Principal), money(y.Balloon), money(y.DebtService), money(y.CapEx),
			money(y.OperatingCashFlow), money(y.SaleProceeds), money(y.LeveredCashFlow),
		})
	}
	return writeAll(w, rows)
}

// WriteMonthlyCSV writes the monthly projection, month 0 first.
func WriteMonthlyCSV(w io.Writer, months []cashflow.Month) error {
	rows := [][]string{{
		"month", "date", "gross_rent", "vacancy_rate", "effective_rent", "operating_expenses", "noi",
		"debt_service", "balloon", "capex", "levered_cash_flow", "estimated_value", "loan_balance", "dscr", "ltv",
	}}
	for _, m := range months {
		rows = append(rows, []string{
			strconv.Itoa(m.Index), m.Date,
			money(m.GrossRent), rate(m.VacancyRate), money(m.EffectiveRent), money(m.OperatingExpenses), money(m.NOI),
			money(m.DebtService), money(m.Balloon), money(m.CapEx), money(m.LeveredCashFlow),
			money(m.EstimatedValue), money(m.LoanBalance), ratio(m.DSCR), ratio(m.LTV),
		})
	}
	return writeAll(w, rows)
}

// WriteDebtScheduleCSV writes one row per loan period.
func WriteDebtScheduleCSV(w io.Writer, schedule loans.Schedule) error {
	rows := [][]string{{"month", "date", "opening_balance", "interest", "principal", "payment", "closing_balance"}}
	for _, p := range schedule.Periods {
		rows = append(rows, []string{
			strconv.Itoa(p.Index), p.Date,
			money(p.OpeningBalance), money(p.Interest), money(p.Principal), money(p.Payment), money(p.ClosingBalance),
		})
	}
	return writeAll(w, rows)
}

// WriteScenariosCSV writes one row per scenario outcome, base first.
func WriteScenariosCSV(w io.Writer, res *scenario.Result) error {
	rows := [][]string{{"scenario", "irr", "npv", "equity_multiple", "min_dscr", "irr_delta", "npv_delta", "error_kind", "error"}}
	for _, o := range res.Outcomes {
		row := []string{o.Name, "", "", "", "", "", "", o.ErrorKind, o.Error}
		if o.Metrics != nil {
			row[1] = rate(o.Metrics.IRR)
			row[2] = money(o.Metrics.NPV)
			row[3] = rate(o.Metrics.EquityMultiple)
			row[4] = ratio(o.Metrics.MinDSCR)
			row[5] = rate(o.IRRDelta)
			row[6] = money(o.NPVDelta)
		}
		rows = append(rows, row)
	}
	return writeAll(w, rows)
}

// WriteDrawsCSV writes the sampled inputs and outcome of every completed draw.
func WriteDrawsCSV(w io.Writer, res *montecarlo.Result) error {
	rows := [][]string{{"draw", "rent_growth", "vacancy", "exit_cap_rate", "interest_rate", "irr", "npv", "equity_multiple"}}
	for _, d := range res.Draws {
		rows = append(rows, []string{
			strconv.Itoa(d.Index),
			rate(d.RentGrowth), rate(d.Vacancy), rate(d.ExitCapRate), rate(d.InterestRate),
			rate(d.IRR), money(d.NPV), rate(d.EquityMultiple),
		})
	}
	return writeAll(w, rows)
}

// WriteSolutionsCSV writes one row per break-even solve.
func WriteSolutionsCSV(w io.Writer, solutions []optimization.Summary) error {
	rows := [][]string{{"field", "original", "value", "hurdle", "irr", "iterations", "converged"}}
	for _, s := range solutions {
		rows = append(rows, []string{
			s.Field,
			strconv.FormatFloat(s.Original, 'f', -1, 64),
			strconv.FormatFloat(s.Value, 'f', -1, 64),
			rate(s.Hurdle),
			ratio(s.IRR),
			strconv.Itoa(s.Iterations),
			strconv.FormatBool(s.Converged),
		})
	}
	return writeAll(w, rows)
}

func writeAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func money(v float64) string {
	return strconv.FormatFloat(mathutil.Round(v), 'f', 2, 64)
}

func rate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ratio leaves undefined ratios empty.
func ratio(r mathutil.Ratio) string {
	if !r.Defined() {
		return ""
	}
	return rate(r.Float())
}
