package calculator

import (
	"errors"
	"fmt"
	"math"

	"RentScope/internal/model"
)

// ErrInvalidInput is returned for arguments the affordability engine cannot compute.
var ErrInvalidInput = errors.New("invalid input")

var (
	// DefaultTerms are the loan terms, in years, of the standard grid.
	DefaultTerms = []int{20, 25, 30}
	// DefaultDownPayments are the down-payment percentages of the standard grid.
	DefaultDownPayments = []float64{20, 25, 30, 35, 40, 45, 50}
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// MaxPrincipal returns the present value of termYears*12 monthly payments of
// payment at the given annual rate.
func MaxPrincipal(payment, interestRatePct float64, termYears int) float64 {
	monthlyRate := (interestRatePct / 100) / 12
	n := float64(termYears * 12)
	if monthlyRate == 0 {
		return payment * n
	}
	// Expm1/Log1p keep the annuity factor accurate as the rate approaches 0,
	// where 1+monthlyRate would round to 1.
	factor := -math.Expm1(-n*math.Log1p(monthlyRate)) / monthlyRate
	if factor > n {
		factor = n
	}
	return payment * factor
}

// ComputeAffordability derives the largest purchase a net monthly income can
// carry when the whole income services the mortgage. A non-positive income
// yields StatusInsufficientIncome with zero amounts and no error.
func ComputeAffordability(netMonthlyIncome, interestRatePct float64, termYears int, downPaymentPct float64) (model.AffordabilityResult, error) {
	if !finite(netMonthlyIncome) || !finite(interestRatePct) || !finite(downPaymentPct) {
		return model.AffordabilityResult{}, fmt.Errorf("%w: non-finite argument", ErrInvalidInput)
	}
	if downPaymentPct < 0 || downPaymentPct >= 100 {
		return model.AffordabilityResult{}, fmt.Errorf("%w: down payment %.2f%% must be in [0, 100)", ErrInvalidInput, downPaymentPct)
	}
	if termYears <= 0 {
		return model.AffordabilityResult{}, fmt.Errorf("%w: term %d years must be positive", ErrInvalidInput, termYears)
	}
	if interestRatePct < 0 {
		return model.AffordabilityResult{}, fmt.Errorf("%w: interest rate %.2f%% must not be negative", ErrInvalidInput, interestRatePct)
	}
	if netMonthlyIncome <= 0 {
		return model.AffordabilityResult{Status: model.StatusInsufficientIncome}, nil
	}

	maxMortgage := MaxPrincipal(netMonthlyIncome, interestRatePct, termYears)
	total := maxMortgage / (1 - downPaymentPct/100)
	downPayment := total * (downPaymentPct / 100)
	if !finite(maxMortgage) || !finite(total) || !finite(downPayment) {
		return model.AffordabilityResult{}, fmt.Errorf("%w: result overflows for income %g", ErrInvalidInput, netMonthlyIncome)
	}
	return model.AffordabilityResult{
		MaxMortgage:         maxMortgage,
		RequiredDownPayment: downPayment,
		TotalPurchaseValue:  total,
		Status:              model.StatusOK,
	}, nil
}

// NetMonthlyIncome converts annual net rent and annual expenses into the
// monthly amount available for the mortgage payment.
func NetMonthlyIncome(netAnnualIncome float64, expenses model.ExpenseInputs) float64 {
	return (netAnnualIncome - expenses.TotalAnnual()) / 12
}

// ComputeScenarioGrid evaluates every (term, down payment) pair, term-major.
// A scenario the engine rejects is flagged with StatusInvalidInput instead of
// aborting the grid.
func ComputeScenarioGrid(netMonthlyIncome, interestRatePct float64, terms []int, downPayments []float64) []model.ScenarioResult {
	out := make([]model.ScenarioResult, 0, len(terms)*len(downPayments))
	for _, term := range terms {
		for _, dp := range downPayments {
			sr := model.ScenarioResult{
				Scenario: model.MortgageScenario{
					TermYears:       term,
					DownPaymentPct:  dp,
					InterestRatePct: interestRatePct,
				},
			}
			res, err := ComputeAffordability(netMonthlyIncome, interestRatePct, term, dp)
			if err != nil {
				sr.Result = model.AffordabilityResult{Status: model.StatusInvalidInput}
				sr.Error = err.Error()
			} else {
				sr.Result = res
			}
			out = append(out, sr)
		}
	}
	return out
}

// ComputeAffordabilityGrid runs the standard 3x7 grid for an annual net
// income less annual expenses.
func ComputeAffordabilityGrid(netAnnualIncome float64, expenses model.ExpenseInputs, interestRatePct float64) ([]model.ScenarioResult, error) {
	if err := ValidateGridInputs(netAnnualIncome, expenses, interestRatePct); err != nil {
		return nil, err
	}
	monthly := NetMonthlyIncome(netAnnualIncome, expenses)
	return ComputeScenarioGrid(monthly, interestRatePct, DefaultTerms, DefaultDownPayments), nil
}

// ValidateGridInputs rejects inputs that would invalidate every scenario.
func ValidateGridInputs(netAnnualIncome float64, expenses model.ExpenseInputs, interestRatePct float64) error {
	if !finite(netAnnualIncome) || !finite(interestRatePct) || !finite(expenses.TotalAnnual()) {
		return fmt.Errorf("%w: non-finite argument", ErrInvalidInput)
	}
	if interestRatePct < 0 {
		return fmt.Errorf("%w: interest rate %.2f%% must not be negative", ErrInvalidInput, interestRatePct)
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"maintenance", expenses.Maintenance},
		{"insurance", expenses.Insurance},
		{"taxes", expenses.Taxes},
		{"hoa_fees", expenses.HOAFees},
		{"other_expenses", expenses.OtherExpenses},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, f.name)
		}
	}
	return nil
}
