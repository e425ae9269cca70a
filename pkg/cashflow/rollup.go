package cashflow

import "github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"

// Year is the annual roll-up of up to twelve months. Year 0 holds only the
// initial equity outflow. A final partial year sums the months it has and is
// not annualised.
type Year struct {
	Year              int     `json:"year"`
	Months            int     `json:"months"`
	GrossRent         float64 `json:"grossRent"`
	VacancyLoss       float64 `json:"vacancyLoss"`
	EffectiveRent     float64 `json:"effectiveRent"`
	OperatingExpenses float64 `json:"operatingExpenses"`
	NOI               float64 `json:"noi"`
	Interest          float64 `json:"interest"`
	Principal         float64 `json:"principal"`
	Balloon           float64 `json:"balloon"`
	DebtService       float64 `json:"debtService"`
	CapEx             float64 `json:"capex"`
	OperatingCashFlow float64 `json:"operatingCashFlow"`
	SaleProceeds      float64 `json:"saleProceeds"`
	LeveredCashFlow   float64 `json:"leveredCashFlow"`
}

// RollUp groups months 1..n into years. monthly[0] is the acquisition month
// and is ignored in favour of initialEquity.
func RollUp(monthly []Month, initialEquity float64) []Year {
	years := []Year{{Year: 0, LeveredCashFlow: -initialEquity}}
	if len(monthly) <= 1 {
		return years
	}

	for _, m := range monthly[1:] {
		y := (m.Index-1)/constants.MonthsPerYear + 1
		if y >= len(years) {
			years = append(years, Year{Year: y})
		}
		row := &years[y]
		row.Months++
		row.GrossRent += m.GrossRent
		row.VacancyLoss += m.VacancyLoss
		row.EffectiveRent += m.EffectiveRent
		row.OperatingExpenses += m.OperatingExpenses
		row.NOI += m.NOI
		row.Interest += m.Interest
		row.Principal += m.Principal
		row.Balloon += m.Balloon
		row.DebtService += m.DebtService
		row.CapEx += m.CapEx
		row.OperatingCashFlow += m.OperatingCashFlow
		row.SaleProceeds += m.SaleProceeds
		row.LeveredCashFlow += m.LeveredCashFlow
	}
	return years
}
