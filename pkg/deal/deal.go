// Package deal defines the immutable deal-assumption record consumed by the
// underwriting pipeline.
//
// A Deal is treated as a value: engines never mutate the record they are
// given. Perturbations (stress scenarios, Monte Carlo draws) operate on a
// Clone so the base assumptions stay untouched.
package deal

import (
	"errors"
	"fmt"
	"math"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/events"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/loans"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/tax"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/valuation"
)

// OpexMode selects how operating expenses are derived.
type OpexMode string

const (
	// OpexRatio charges a fraction of effective rent each month.
	OpexRatio OpexMode = "ratio"

	// OpexAbsolute charges a fixed monthly amount that grows at GrowthRate.
	OpexAbsolute OpexMode = "absolute"
)

// AcquisitionCosts are the one-off costs paid at purchase on top of the price.
// StampDuty overrides the computed duty when set; otherwise StampDutyPolicy
// (or the default residential policy) is applied to the purchase price.
type AcquisitionCosts struct {
	StampDuty       *float64    `json:"stampDuty,omitempty"`
	StampDutyPolicy *tax.Policy `json:"stampDutyPolicy,omitempty"`
	LegalFees       float64     `json:"legalFees"`
	BrokerFees      float64     `json:"brokerFees"`
	OtherCosts      float64     `json:"otherCosts"`
}

// Financing describes the acquisition loan.
type Financing struct {
	LTV          float64        `json:"ltv"`
	InterestRate float64        `json:"interestRate"`
	TermMonths   int            `json:"termMonths"`
	Type         loans.DebtType `json:"type"`
	FeeFraction  float64        `json:"feeFraction"`
}

// Rental describes the income side. MonthlyRent is the gross market rent in
// month 1. VacancySchedule, when present, overrides VacancyRate month by
// month and must cover the whole hold.
type Rental struct {
	MonthlyRent     float64   `json:"monthlyRent"`
	GrowthRate      float64   `json:"growthRate"`
	VacancyRate     float64   `json:"vacancyRate"`
	VacancySchedule []float64 `json:"vacancySchedule,omitempty"`
}

// Operating describes operating expenses.
type Operating struct {
	Mode          OpexMode `json:"mode"`
	Ratio         float64  `json:"ratio,omitempty"`
	MonthlyAmount float64  `json:"monthlyAmount,omitempty"`
	GrowthRate    float64  `json:"growthRate,omitempty"`
}

// ExitTerms describes the sale at the end of the hold.
type ExitTerms = valuation.Exit

// Deal is a fully-populated set of underwriting assumptions. All rates are
// fractions, never percentages.
type Deal struct {
	Name          string           `json:"name,omitempty"`
	StartDate     string           `json:"startDate,omitempty"`
	PurchasePrice float64          `json:"purchasePrice"`
	Acquisition   AcquisitionCosts `json:"acquisition"`
	Financing     Financing        `json:"financing"`
	Rental        Rental           `json:"rental"`
	Operating     Operating        `json:"operating"`
	Exit          ExitTerms        `json:"exit"`
	CapEx         []events.Event   `json:"capex,omitempty"`
	HoldMonths    int              `json:"holdMonths"`
	DiscountRate  float64          `json:"discountRate"`
	HurdleRate    float64          `json:"hurdleRate"`
}

// Clone returns a deep copy of d.
func (d Deal) Clone() Deal {
	c := d
	if d.Acquisition.StampDuty != nil {
		v := *d.Acquisition.StampDuty
		c.Acquisition.StampDuty = &v
	}
	if d.Acquisition.StampDutyPolicy != nil {
		p := tax.Policy{Bands: append([]tax.Band(nil), d.Acquisition.StampDutyPolicy.Bands...)}
		c.Acquisition.StampDutyPolicy = &p
	}
	if d.Rental.VacancySchedule != nil {
		c.Rental.VacancySchedule = append([]float64(nil), d.Rental.VacancySchedule...)
	}
	if d.CapEx != nil {
		c.CapEx = append([]events.Event(nil), d.CapEx...)
	}
	return c
}

// Validate range-checks the assumptions. It does not second-guess the
// business sense of the inputs.
func (d Deal) Validate() error {
	if !(d.PurchasePrice > 0) || math.IsInf(d.PurchasePrice, 0) {
		return invalid("purchasePrice", d.PurchasePrice, "purchase price must be positive")
	}
	if d.HoldMonths <= 0 {
		return invalid("holdMonths", float64(d.HoldMonths), "hold period must be positive")
	}
	if err := d.Acquisition.validate(); err != nil {
		return err
	}
	if err := d.Financing.validate(); err != nil {
		return err
	}
	if err := d.Rental.validate(d.HoldMonths); err != nil {
		return err
	}
	if err := d.Operating.validate(); err != nil {
		return err
	}
	if err := d.Exit.Validate(); err != nil {
		return err
	}
	if _, err := d.CapExSchedule(); err != nil {
		return err
	}
	if d.DiscountRate <= -1 || math.IsNaN(d.DiscountRate) {
		return invalid("discountRate", d.DiscountRate, "discount rate must be greater than -100%")
	}
	return nil
}

// CapExSchedule returns the capital expenditure charged in each month,
// 0 through HoldMonths.
func (d Deal) CapExSchedule() ([]float64, error) {
	schedule, err := events.Schedule(d.CapEx, d.StartDate, d.HoldMonths)
	if err != nil {
		if errors.Is(err, uwerr.ErrInvalidAssumptions) {
			return nil, err
		}
		return nil, uwerr.New(uwerr.ErrInvalidAssumptions, "capex", 0, "%v", err)
	}
	return schedule, nil
}

// LoanAmount is the principal drawn at purchase.
func (d Deal) LoanAmount() float64 {
	return d.PurchasePrice * d.Financing.LTV
}

// FinancingFee is the arrangement fee charged on the loan.
func (d Deal) FinancingFee() float64 {
	return d.LoanAmount() * d.Financing.FeeFraction
}

// StampDuty returns the override when set, otherwise the duty computed from
// the configured or default policy.
func (d Deal) StampDuty() (float64, error) {
	if d.Acquisition.StampDuty != nil {
		return *d.Acquisition.StampDuty, nil
	}
	policy := tax.DefaultResidentialPolicy()
	if d.Acquisition.StampDutyPolicy != nil {
		policy = *d.Acquisition.StampDutyPolicy
	}
	return policy.Duty(d.PurchasePrice)
}

// AcquisitionCostTotal sums stamp duty and the fee components.
func (d Deal) AcquisitionCostTotal() (float64, error) {
	duty, err := d.StampDuty()
	if err != nil {
		return 0, err
	}
	a := d.Acquisition
	return duty + a.LegalFees + a.BrokerFees + a.OtherCosts, nil
}

// InitialEquity is the cash the investor puts in at month 0: the price not
// covered by debt plus acquisition costs and the financing fee.
func (d Deal) InitialEquity() (float64, error) {
	costs, err := d.AcquisitionCostTotal()
	if err != nil {
		return 0, err
	}
	return d.PurchasePrice - d.LoanAmount() + costs + d.FinancingFee(), nil
}

// VacancyAt returns the vacancy rate applied in the given 1-based month.
func (d Deal) VacancyAt(month int) float64 {
	if len(d.Rental.VacancySchedule) > 0 && month >= 1 && month <= len(d.Rental.VacancySchedule) {
		return d.Rental.VacancySchedule[month-1]
	}
	return d.Rental.VacancyRate
}

// LoanTerms returns the debt schedule inputs for this deal.
func (d Deal) LoanTerms() loans.Terms {
	return loans.Terms{
		Principal:  d.LoanAmount(),
		AnnualRate: d.Financing.InterestRate,
		TermMonths: d.Financing.TermMonths,
		Type:       d.Financing.Type,
	}
}

// Leveraged reports whether the deal carries any debt.
func (d Deal) Leveraged() bool {
	return d.LoanAmount() > 0
}

func (a AcquisitionCosts) validate() error {
	if a.StampDuty != nil && (*a.StampDuty < 0 || math.IsNaN(*a.StampDuty)) {
		return invalid("acquisition.stampDuty", *a.StampDuty, "stamp duty must be non-negative")
	}
	if a.StampDutyPolicy != nil {
		if err := a.StampDutyPolicy.Validate(); err != nil {
			return err
		}
	}
	components := []struct {
		field string
		value float64
	}{
		{"acquisition.legalFees", a.LegalFees},
		{"acquisition.brokerFees", a.BrokerFees},
		{"acquisition.otherCosts", a.OtherCosts},
	}
	for _, c := range components {
		if c.value < 0 || math.IsNaN(c.value) {
			return invalid(c.field, c.value, "acquisition cost components must be non-negative")
		}
	}
	return nil
}

func (f Financing) validate() error {
	if f.LTV < 0 || f.LTV > 1 || math.IsNaN(f.LTV) {
		return invalid("financing.ltv", f.LTV, "loan-to-value must be within [0,1]")
	}
	if f.FeeFraction < 0 || f.FeeFraction >= 1 || math.IsNaN(f.FeeFraction) {
		return invalid("financing.feeFraction", f.FeeFraction, "financing fee must be within [0,1)")
	}
	if f.LTV == 0 {
		return nil
	}
	if f.InterestRate < 0 || math.IsNaN(f.InterestRate) {
		return uwerr.New(uwerr.ErrInvalidFinancingTerms, "financing.interestRate", f.InterestRate, "interest rate must be non-negative")
	}
	if f.TermMonths <= 0 {
		return uwerr.New(uwerr.ErrInvalidFinancingTerms, "financing.termMonths", float64(f.TermMonths), "term must be positive")
	}
	switch f.Type {
	case loans.Amortizing, loans.InterestOnly:
	default:
		return uwerr.New(uwerr.ErrInvalidFinancingTerms, "financing.type", 0, "unknown debt type %q", f.Type)
	}
	return nil
}

func (r Rental) validate(holdMonths int) error {
	if r.MonthlyRent < 0 || math.IsNaN(r.MonthlyRent) || math.IsInf(r.MonthlyRent, 0) {
		return invalid("rental.monthlyRent", r.MonthlyRent, "rent must be non-negative")
	}
	if r.GrowthRate <= -1 || math.IsNaN(r.GrowthRate) {
		return invalid("rental.growthRate", r.GrowthRate, "rent growth must be greater than -100%")
	}
	if r.VacancyRate < 0 || r.VacancyRate > 1 || math.IsNaN(r.VacancyRate) {
		return invalid("rental.vacancyRate", r.VacancyRate, "vacancy must be within [0,1]")
	}
	if r.VacancySchedule == nil {
		return nil
	}
	if len(r.VacancySchedule) != holdMonths {
		return invalid("rental.vacancySchedule", float64(len(r.VacancySchedule)),
			fmt.Sprintf("vacancy schedule must have one entry per hold month (%d)", holdMonths))
	}
	for i, v := range r.VacancySchedule {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return invalid(fmt.Sprintf("rental.vacancySchedule[%d]", i), v, "vacancy must be within [0,1]")
		}
	}
	return nil
}

func (o Operating) validate() error {
	switch o.Mode {
	case OpexRatio:
		if o.Ratio < 0 || o.Ratio > 1 || math.IsNaN(o.Ratio) {
			return invalid("operating.ratio", o.Ratio, "operating expense ratio must be within [0,1]")
		}
	case OpexAbsolute:
		if o.MonthlyAmount < 0 || math.IsNaN(o.MonthlyAmount) {
			return invalid("operating.monthlyAmount", o.MonthlyAmount, "operating expenses must be non-negative")
		}
		if o.GrowthRate <= -1 || math.IsNaN(o.GrowthRate) {
			return invalid("operating.growthRate", o.GrowthRate, "opex growth must be greater than -100%")
		}
	default:
		return invalid("operating.mode", 0, fmt.Sprintf("unknown operating expense mode %q", o.Mode))
	}
	return nil
}

func invalid(field string, value float64, detail string) error {
	return uwerr.New(uwerr.ErrInvalidAssumptions, field, value, "%s", detail)
}
