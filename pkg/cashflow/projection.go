// Package cashflow projects monthly NOI and levered cash flows for a deal and
// rolls them up into modelled years.
//
// Month 0 is the acquisition month: it carries only the initial equity
// outflow. Months 1..hold carry operations, and the final month also carries
// the net sale proceeds. Capital expenditure is charged below NOI, so it
// reduces cash flow but not DSCR or the exit valuation.
package cashflow

import (
	"fmt"
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/datetime"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/loans"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/mathutil"
)

// Month is one period of the projection.
type Month struct {
	Index             int            `json:"month"`
	Date              string         `json:"date,omitempty"`
	GrossRent         float64        `json:"grossRent"`
	VacancyRate       float64        `json:"vacancyRate"`
	VacancyLoss       float64        `json:"vacancyLoss"`
	EffectiveRent     float64        `json:"effectiveRent"`
	OperatingExpenses float64        `json:"operatingExpenses"`
	NOI               float64        `json:"noi"`
	Interest          float64        `json:"interest"`
	Principal         float64        `json:"principal"`
	Balloon           float64        `json:"balloon"`
	DebtService       float64        `json:"debtService"`
	CapEx             float64        `json:"capex"`
	OperatingCashFlow float64        `json:"operatingCashFlow"`
	SaleProceeds      float64        `json:"saleProceeds"`
	LeveredCashFlow   float64        `json:"leveredCashFlow"`
	EstimatedValue    float64        `json:"estimatedValue"`
	LoanBalance       float64        `json:"loanBalance"`
	DSCR              mathutil.Ratio `json:"dscr"`
	LTV               mathutil.Ratio `json:"ltv"`
}

// Projection is the full output of Project.
type Projection struct {
	Monthly []Month `json:"monthly"`
	Annual  []Year  `json:"annual"`

	InitialEquity    float64 `json:"initialEquity"`
	PurchasePrice    float64 `json:"purchasePrice"`
	LoanAmount       float64 `json:"loanAmount"`
	AcquisitionCosts float64 `json:"acquisitionCosts"`
	FinancingFee     float64 `json:"financingFee"`
	TotalCapEx       float64 `json:"totalCapex"`

	ExitNOI         float64 `json:"exitNoi"`
	ExitValue       float64 `json:"exitValue"`
	ExitCosts       float64 `json:"exitCosts"`
	DebtAtExit      float64 `json:"debtAtExit"`
	NetSaleProceeds float64 `json:"netSaleProceeds"`
}

// HoldMonths returns the number of operating months.
func (p Projection) HoldMonths() int {
	if len(p.Monthly) == 0 {
		return 0
	}
	return len(p.Monthly) - 1
}

// LeveredCashFlows returns the equity cash-flow vector, month 0 first.
func (p Projection) LeveredCashFlows() []float64 {
	flows := make([]float64, len(p.Monthly))
	for i, m := range p.Monthly {
		flows[i] = m.LeveredCashFlow
	}
	return flows
}

// MonthlyGrowthRate converts an annual growth rate into the monthly rate
// that compounds to it over twelve months.
func MonthlyGrowthRate(annual float64) float64 {
	return math.Pow(1+annual, 1.0/constants.MonthsPerYear) - 1
}

// Project builds the monthly cash-flow series for d using schedule for debt
// service. An empty schedule models an unleveraged deal. Months past the end
// of the schedule carry no debt service.
func Project(d deal.Deal, schedule loans.Schedule) (Projection, error) {
	if err := d.Validate(); err != nil {
		return Projection{}, err
	}

	costs, err := d.AcquisitionCostTotal()
	if err != nil {
		return Projection{}, err
	}
	capex, err := d.CapExSchedule()
	if err != nil {
		return Projection{}, err
	}
	labels, err := datetime.PeriodLabels(d.StartDate, d.HoldMonths)
	if err != nil {
		return Projection{}, fmt.Errorf("projection dates: %w", err)
	}

	hold := d.HoldMonths
	loan := d.LoanAmount()
	fee := d.FinancingFee()
	equity := d.PurchasePrice - loan + costs + fee

	p := Projection{
		Monthly:          make([]Month, hold+1),
		InitialEquity:    equity,
		PurchasePrice:    d.PurchasePrice,
		LoanAmount:       loan,
		AcquisitionCosts: costs,
		FinancingFee:     fee,
	}

	p.Monthly[0] = Month{
		Index:           0,
		Date:            labels[0],
		LeveredCashFlow: -equity,
		EstimatedValue:  d.PurchasePrice,
		LoanBalance:     loan,
		DSCR:            mathutil.Unbounded,
		LTV:             LoanToValue(loan, d.PurchasePrice),
	}

	rentGrowth := MonthlyGrowthRate(d.Rental.GrowthRate)
	opexGrowth := MonthlyGrowthRate(d.Operating.GrowthRate)
	interestOnly := schedule.Terms.Type == loans.InterestOnly

	for m := 1; m <= hold; m++ {
		gross := d.Rental.MonthlyRent * math.Pow(1+rentGrowth, float64(m-1))
		vacancy := d.VacancyAt(m)
		loss := gross * vacancy
		effective := gross - loss

		var opex float64
		switch d.Operating.Mode {
		case deal.OpexAbsolute:
			opex = d.Operating.MonthlyAmount * math.Pow(1+opexGrowth, float64(m-1))
		default:
			opex = effective * d.Operating.Ratio
		}
		noi := effective - opex

		month := Month{
			Index:             m,
			Date:              labels[m],
			GrossRent:         gross,
			VacancyRate:       vacancy,
			VacancyLoss:       loss,
			EffectiveRent:     effective,
			OperatingExpenses: opex,
			NOI:               noi,
		}

		if period, ok := schedule.Period(m); ok {
			month.Interest = period.Interest
			month.Principal = period.Principal
			if interestOnly && m == schedule.Len() {
				month.Balloon = period.Principal
				month.Principal = 0
			}
			month.LoanBalance = period.ClosingBalance
		} else {
			month.LoanBalance = schedule.BalanceAfter(m)
		}
		month.DebtService = month.Interest + month.Principal
		month.CapEx = capex[m]
		p.TotalCapEx += capex[m]
		month.DSCR = Coverage(noi, month.DebtService)

		// Validated above, so the valuation cannot fail.
		month.EstimatedValue, _ = d.Exit.Value(noi * constants.MonthsPerYear)
		month.LTV = LoanToValue(month.LoanBalance, month.EstimatedValue)

		month.OperatingCashFlow = noi - month.DebtService - month.CapEx
		month.LeveredCashFlow = month.OperatingCashFlow - month.Balloon

		p.Monthly[m] = month
	}

	p.ExitNOI = TrailingNOI(p.Monthly[1:])
	p.ExitValue, err = d.Exit.GrossProceeds(p.ExitNOI)
	if err != nil {
		return Projection{}, err
	}
	p.ExitCosts = p.ExitValue * d.Exit.CostFraction
	p.DebtAtExit = p.Monthly[hold].LoanBalance
	p.NetSaleProceeds, err = d.Exit.NetProceeds(p.ExitNOI, p.DebtAtExit)
	if err != nil {
		return Projection{}, err
	}

	last := &p.Monthly[hold]
	last.SaleProceeds = p.NetSaleProceeds
	last.LeveredCashFlow += p.NetSaleProceeds

	p.Annual = RollUp(p.Monthly, equity)
	return p, nil
}

// TrailingNOI returns the annualised NOI of the last twelve operating months.
// Shorter series are scaled up to a full year.
func TrailingNOI(operating []Month) float64 {
	n := len(operating)
	if n == 0 {
		return 0
	}
	window := n
	if window > constants.MonthsPerYear {
		window = constants.MonthsPerYear
	}
	sum := 0.0
	for _, m := range operating[n-window:] {
		sum += m.NOI
	}
	return sum * constants.MonthsPerYear / float64(window)
}

// Coverage returns NOI over debt service, or Unbounded when nothing is owed.
func Coverage(noi, debtService float64) mathutil.Ratio {
	if debtService <= 0 {
		return mathutil.Unbounded
	}
	return mathutil.Ratio(noi / debtService)
}

// LoanToValue returns balance over value. A zero balance is always 0; a
// positive balance against a non-positive value is Unbounded.
func LoanToValue(balance, value float64) mathutil.Ratio {
	if balance <= constants.BalanceTolerance {
		return 0
	}
	if value <= 0 {
		return mathutil.Unbounded
	}
	return mathutil.Ratio(balance / value)
}
