// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/deal"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/loans"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/valuation"
)

// SampleDeal returns a small buy-to-let deal: a 200k flat bought with a 75%
// interest-only mortgage, held for five years and sold on a 6% cap rate.
// Each call returns a fresh value so tests may modify it freely.
func SampleDeal() deal.Deal {
	return deal.Deal{
		Name:          "sample",
		StartDate:     "2025-01",
		PurchasePrice: 200_000,
		Acquisition: deal.AcquisitionCosts{
			LegalFees: 1_500,
		},
		Financing: deal.Financing{
			LTV:          0.75,
			InterestRate: 0.05,
			TermMonths:   300,
			Type:         loans.InterestOnly,
			FeeFraction:  0.01,
		},
		Rental: deal.Rental{
			MonthlyRent: 1_500,
			GrowthRate:  0.02,
			VacancyRate: 0.05,
		},
		Operating: deal.Operating{
			Mode:  deal.OpexRatio,
			Ratio: 0.30,
		},
		Exit: valuation.Exit{
			Method:       valuation.CapRate,
			CapRate:      0.06,
			CostFraction: 0.02,
		},
		HoldMonths:   60,
		DiscountRate: 0.08,
		HurdleRate:   0.12,
	}
}

// AmortizingDeal returns SampleDeal financed with a repayment mortgage.
func AmortizingDeal() deal.Deal {
	d := SampleDeal()
	d.Name = "sample-amortizing"
	d.Financing.Type = loans.Amortizing
	return d
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
