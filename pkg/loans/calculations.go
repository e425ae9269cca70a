// Package loans provides the debt schedule engine: amortizing and
// interest-only monthly schedules derived from financing terms.
package loans

import (
	"fmt"
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"go.uber.org/zap"
)

// DebtType selects how principal is repaid.
type DebtType string

const (
	// Amortizing loans repay principal with a level monthly annuity payment.
	Amortizing DebtType = "amortizing"

	// InterestOnly loans pay interest monthly and repay principal as a
	// balloon in the final month of the term.
	InterestOnly DebtType = "interest-only"
)

// ParseDebtType maps config spellings onto a DebtType.
func ParseDebtType(value string) (DebtType, error) {
	switch value {
	case "", "amortizing", "amortising", "repayment":
		return Amortizing, nil
	case "interest-only", "interest_only", "interestOnly", "io":
		return InterestOnly, nil
	default:
		return "", fmt.Errorf("unknown debt type %q", value)
	}
}

// Terms are the financing inputs to the schedule. AnnualRate is a fraction
// (0.05 for 5%).
type Terms struct {
	Principal  float64
	AnnualRate float64
	TermMonths int
	Type       DebtType
}

// Validate rejects terms the schedule cannot be built from.
func (t Terms) Validate() error {
	if !(t.Principal > 0) || math.IsInf(t.Principal, 0) {
		return uwerr.New(uwerr.ErrInvalidFinancingTerms, "principal", t.Principal, "principal must be positive")
	}
	if t.AnnualRate < 0 || math.IsNaN(t.AnnualRate) {
		return uwerr.New(uwerr.ErrInvalidFinancingTerms, "interestRate", t.AnnualRate, "interest rate must be non-negative")
	}
	if t.TermMonths <= 0 {
		return uwerr.New(uwerr.ErrInvalidFinancingTerms, "termMonths", float64(t.TermMonths), "term must be positive")
	}
	switch t.Type {
	case Amortizing, InterestOnly:
	default:
		return uwerr.New(uwerr.ErrInvalidFinancingTerms, "debtType", 0, "unknown debt type %q", t.Type)
	}
	return nil
}

// MonthlyRate converts an annual nominal rate into the monthly rate.
func MonthlyRate(annualRate float64) float64 {
	return annualRate / constants.MonthsPerYear
}

// CalculateMonthlyPayment calculates the level monthly payment for an
// amortizing loan using the standard annuity formula. A zero rate falls back
// to straight-line repayment.
func CalculateMonthlyPayment(principal, annualRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	monthlyRate := MonthlyRate(annualRate)
	if monthlyRate == 0 {
		return principal / float64(termMonths)
	}

	power := math.Pow(1.00+monthlyRate, float64(termMonths))
	discountFactor := (power - 1.00) / power
	return principal * monthlyRate / discountFactor
}

// CalculateInterestPayment calculates the interest accrued on a balance for
// one month.
func CalculateInterestPayment(remainingPrincipal, annualRate float64) float64 {
	return remainingPrincipal * MonthlyRate(annualRate)
}

// Period is one month of a debt schedule. Index is 1-based.
type Period struct {
	Index          int     `json:"month"`
	Date           string  `json:"date,omitempty"`
	OpeningBalance float64 `json:"openingBalance"`
	Interest       float64 `json:"interest"`
	Principal      float64 `json:"principal"`
	Payment        float64 `json:"payment"`
	ClosingBalance float64 `json:"closingBalance"`
}

// Schedule is an ordered sequence of periods covering the loan term.
type Schedule struct {
	Terms          Terms    `json:"-"`
	MonthlyPayment float64  `json:"monthlyPayment"`
	Periods        []Period `json:"periods"`
}

// Len returns the number of periods in the schedule.
func (s Schedule) Len() int {
	return len(s.Periods)
}

// Period returns the period for a 1-based month. Months past the term report
// a zero period carrying the final closing balance.
func (s Schedule) Period(month int) (Period, bool) {
	if month < 1 || month > len(s.Periods) {
		return Period{Index: month, OpeningBalance: s.finalBalance(), ClosingBalance: s.finalBalance()}, false
	}
	return s.Periods[month-1], true
}

// BalanceAfter returns the outstanding balance after the given month's
// payment. Month 0 is the original principal.
func (s Schedule) BalanceAfter(month int) float64 {
	if month <= 0 {
		return s.Terms.Principal
	}
	if month > len(s.Periods) {
		return s.finalBalance()
	}
	return s.Periods[month-1].ClosingBalance
}

// TotalPrincipal sums the principal component of every period.
func (s Schedule) TotalPrincipal() float64 {
	total := 0.0
	for _, p := range s.Periods {
		total += p.Principal
	}
	return total
}

// TotalInterest sums the interest component of every period.
func (s Schedule) TotalInterest() float64 {
	total := 0.0
	for _, p := range s.Periods {
		total += p.Interest
	}
	return total
}

func (s Schedule) finalBalance() float64 {
	if len(s.Periods) == 0 {
		return 0
	}
	return s.Periods[len(s.Periods)-1].ClosingBalance
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule creates the complete monthly schedule for the loan term.
func (g *AmortizationScheduleGenerator) GenerateSchedule(terms Terms) (Schedule, error) {
	if err := terms.Validate(); err != nil {
		return Schedule{}, err
	}

	var schedule Schedule
	switch terms.Type {
	case InterestOnly:
		schedule = interestOnlySchedule(terms)
	default:
		schedule = amortizingSchedule(terms)
	}

	g.logger.Debug("generated debt schedule",
		zap.String("op", "loans.GenerateSchedule"),
		zap.String("type", string(terms.Type)),
		zap.Float64("principal", terms.Principal),
		zap.Float64("rate", terms.AnnualRate),
		zap.Int("termMonths", terms.TermMonths),
		zap.Float64("monthlyPayment", schedule.MonthlyPayment),
	)
	return schedule, nil
}

func amortizingSchedule(terms Terms) Schedule {
	monthlyPayment := CalculateMonthlyPayment(terms.Principal, terms.AnnualRate, terms.TermMonths)
	periods := make([]Period, terms.TermMonths)
	balance := terms.Principal

	for month := 1; month <= terms.TermMonths; month++ {
		interest := CalculateInterestPayment(balance, terms.AnnualRate)
		principal := monthlyPayment - interest
		if month == terms.TermMonths || principal > balance {
			// We will get machine error otherwise so retire the exact balance.
			principal = balance
		}
		periods[month-1] = Period{
			Index:          month,
			OpeningBalance: balance,
			Interest:       interest,
			Principal:      principal,
			Payment:        interest + principal,
			ClosingBalance: balance - principal,
		}
		balance -= principal
	}
	periods[len(periods)-1].ClosingBalance = 0

	return Schedule{Terms: terms, MonthlyPayment: monthlyPayment, Periods: periods}
}

func interestOnlySchedule(terms Terms) Schedule {
	periods := make([]Period, terms.TermMonths)
	interest := CalculateInterestPayment(terms.Principal, terms.AnnualRate)

	for month := 1; month <= terms.TermMonths; month++ {
		p := Period{
			Index:          month,
			OpeningBalance: terms.Principal,
			Interest:       interest,
			Payment:        interest,
			ClosingBalance: terms.Principal,
		}
		if month == terms.TermMonths {
			p.Principal = terms.Principal
			p.Payment += terms.Principal
			p.ClosingBalance = 0
		}
		periods[month-1] = p
	}

	return Schedule{Terms: terms, MonthlyPayment: interest, Periods: periods}
}
