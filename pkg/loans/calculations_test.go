package loans

import (
	"errors"
	"math"
	"testing"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"go.uber.org/zap"
)

func TestCalculateMonthlyPayment(t *testing.T) {
	tests := []struct {
		name          string
		principal     float64
		annualRate    float64
		termMonths    int
		expectedRange []float64 // [min, max] expected range
	}{
		{
			name:          "Standard 25-year buy-to-let mortgage",
			principal:     200000,
			annualRate:    0.05,
			termMonths:    300,
			expectedRange: []float64{1169, 1170}, // Around 1169.18
		},
		{
			name:          "Standard 30-year mortgage",
			principal:     240000,
			annualRate:    0.06,
			termMonths:    360,
			expectedRange: []float64{1438, 1440}, // Around 1438.92
		},
		{
			name:          "Zero interest loan",
			principal:     12000,
			annualRate:    0,
			termMonths:    60,
			expectedRange: []float64{200, 200},
		},
		{
			name:          "High interest loan",
			principal:     10000,
			annualRate:    0.18,
			termMonths:    36,
			expectedRange: []float64{360, 380}, // Around 361.52
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateMonthlyPayment(tt.principal, tt.annualRate, tt.termMonths)

			if result < tt.expectedRange[0] || result > tt.expectedRange[1] {
				t.Errorf("CalculateMonthlyPayment() = %.2f, expected range [%.2f, %.2f]",
					result, tt.expectedRange[0], tt.expectedRange[1])
			}
		})
	}
}

func TestCalculateInterestPayment(t *testing.T) {
	tests := []struct {
		name       string
		balance    float64
		annualRate float64
		expected   float64
	}{
		{"Period one of a 5% loan", 200000, 0.05, 833.3333333333334},
		{"Zero rate", 50000, 0, 0},
		{"Zero balance", 0, 0.07, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateInterestPayment(tt.balance, tt.annualRate)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("CalculateInterestPayment() = %.6f, expected %.6f", result, tt.expected)
			}
		})
	}
}

func TestGenerateScheduleAmortizing(t *testing.T) {
	gen := NewAmortizationScheduleGenerator(zap.NewNop())
	terms := Terms{Principal: 200000, AnnualRate: 0.05, TermMonths: 300, Type: Amortizing}

	schedule, err := gen.GenerateSchedule(terms)
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	if schedule.Len() != 300 {
		t.Fatalf("expected 300 periods, got %d", schedule.Len())
	}

	first := schedule.Periods[0]
	if math.Abs(first.Interest-833.33) > 0.01 {
		t.Errorf("period 1 interest = %.4f, expected ~833.33", first.Interest)
	}
	if math.Abs(first.Payment-schedule.MonthlyPayment) > 1e-9 {
		t.Errorf("period 1 payment = %.4f, expected %.4f", first.Payment, schedule.MonthlyPayment)
	}

	last := schedule.Periods[len(schedule.Periods)-1]
	if last.ClosingBalance != 0 {
		t.Errorf("final closing balance = %g, expected exactly 0", last.ClosingBalance)
	}
	if math.Abs(schedule.TotalPrincipal()-terms.Principal) > 1e-6 {
		t.Errorf("total principal = %.6f, expected %.2f", schedule.TotalPrincipal(), terms.Principal)
	}

	for i := 1; i < len(schedule.Periods); i++ {
		prev, cur := schedule.Periods[i-1], schedule.Periods[i]
		if cur.OpeningBalance != prev.ClosingBalance {
			t.Fatalf("period %d opening %.6f != previous closing %.6f", cur.Index, cur.OpeningBalance, prev.ClosingBalance)
		}
		if cur.ClosingBalance > prev.ClosingBalance {
			t.Fatalf("balance increased at period %d", cur.Index)
		}
		if cur.ClosingBalance < 0 {
			t.Fatalf("negative balance at period %d", cur.Index)
		}
	}
}

func TestGenerateScheduleZeroRate(t *testing.T) {
	gen := NewAmortizationScheduleGenerator(nil)
	schedule, err := gen.GenerateSchedule(Terms{Principal: 1200, AnnualRate: 0, TermMonths: 12, Type: Amortizing})
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	for _, p := range schedule.Periods {
		if p.Interest != 0 {
			t.Errorf("period %d interest = %g, expected 0", p.Index, p.Interest)
		}
		if math.Abs(p.Principal-100) > 1e-9 {
			t.Errorf("period %d principal = %g, expected 100", p.Index, p.Principal)
		}
	}
	if schedule.BalanceAfter(12) != 0 {
		t.Errorf("BalanceAfter(12) = %g, expected 0", schedule.BalanceAfter(12))
	}
}

func TestGenerateScheduleInterestOnly(t *testing.T) {
	gen := NewAmortizationScheduleGenerator(nil)
	terms := Terms{Principal: 150000, AnnualRate: 0.06, TermMonths: 24, Type: InterestOnly}

	schedule, err := gen.GenerateSchedule(terms)
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}

	for _, p := range schedule.Periods[:23] {
		if p.Principal != 0 {
			t.Errorf("period %d principal = %g, expected 0", p.Index, p.Principal)
		}
		if math.Abs(p.Interest-750) > 1e-9 {
			t.Errorf("period %d interest = %g, expected 750", p.Index, p.Interest)
		}
		if p.ClosingBalance != terms.Principal {
			t.Errorf("period %d closing = %g, expected %g", p.Index, p.ClosingBalance, terms.Principal)
		}
	}

	last := schedule.Periods[23]
	if last.Principal != terms.Principal {
		t.Errorf("balloon principal = %g, expected %g", last.Principal, terms.Principal)
	}
	if math.Abs(last.Payment-(terms.Principal+750)) > 1e-9 {
		t.Errorf("balloon payment = %g", last.Payment)
	}
	if last.ClosingBalance != 0 {
		t.Errorf("final closing = %g, expected 0", last.ClosingBalance)
	}
}

func TestGenerateScheduleInvalidTerms(t *testing.T) {
	gen := NewAmortizationScheduleGenerator(nil)
	tests := []struct {
		name  string
		terms Terms
	}{
		{"zero principal", Terms{Principal: 0, AnnualRate: 0.05, TermMonths: 12, Type: Amortizing}},
		{"negative principal", Terms{Principal: -1, AnnualRate: 0.05, TermMonths: 12, Type: Amortizing}},
		{"negative rate", Terms{Principal: 1000, AnnualRate: -0.01, TermMonths: 12, Type: Amortizing}},
		{"zero term", Terms{Principal: 1000, AnnualRate: 0.05, TermMonths: 0, Type: Amortizing}},
		{"unknown type", Terms{Principal: 1000, AnnualRate: 0.05, TermMonths: 12, Type: "balloon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gen.GenerateSchedule(tt.terms)
			if !errors.Is(err, uwerr.ErrInvalidFinancingTerms) {
				t.Errorf("expected ErrInvalidFinancingTerms, got %v", err)
			}
		})
	}
}

func TestScheduleBeyondTerm(t *testing.T) {
	gen := NewAmortizationScheduleGenerator(nil)
	schedule, err := gen.GenerateSchedule(Terms{Principal: 1000, AnnualRate: 0.05, TermMonths: 6, Type: Amortizing})
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}

	p, ok := schedule.Period(9)
	if ok {
		t.Error("expected month 9 to be outside the term")
	}
	if p.Payment != 0 || p.ClosingBalance != 0 {
		t.Errorf("expected zero period after term, got %+v", p)
	}
	if schedule.BalanceAfter(0) != 1000 {
		t.Errorf("BalanceAfter(0) = %g, expected 1000", schedule.BalanceAfter(0))
	}
}

func TestParseDebtType(t *testing.T) {
	tests := []struct {
		input    string
		expected DebtType
		wantErr  bool
	}{
		{"", Amortizing, false},
		{"amortising", Amortizing, false},
		{"interest-only", InterestOnly, false},
		{"io", InterestOnly, false},
		{"bullet", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDebtType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDebtType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseDebtType(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
