package analysis

import (
	"errors"
	"fmt"

	"RentScope/internal/calculator"
	"RentScope/internal/model"
)

// ErrNoUnits is returned when a request names no units to analyze.
var ErrNoUnits = errors.New("at least one unit is required")

// Options overrides the scenario grid. Zero values select the standard grid.
type Options struct {
	Terms        []int
	DownPayments []float64
}

func (o Options) terms() []int {
	if len(o.Terms) == 0 {
		return calculator.DefaultTerms
	}
	return o.Terms
}

func (o Options) downPayments() []float64 {
	if len(o.DownPayments) == 0 {
		return calculator.DefaultDownPayments
	}
	return o.DownPayments
}

// Validate checks the request before any record is touched.
func Validate(req model.AnalysisRequest) error {
	if !req.AreaField.Valid() {
		return fmt.Errorf("%w: unknown area field %q", calculator.ErrInvalidInput, req.AreaField)
	}
	if len(req.Units) == 0 {
		return ErrNoUnits
	}
	for i, u := range req.Units {
		if u.Bedrooms < 1 {
			return fmt.Errorf("%w: unit %d needs at least one bedroom", calculator.ErrInvalidInput, i+1)
		}
		if u.Bathrooms < 0 {
			return fmt.Errorf("%w: unit %d has negative bathrooms", calculator.ErrInvalidInput, i+1)
		}
	}
	return calculator.ValidateGridInputs(0, req.Expenses, req.InterestRatePct)
}

// Analyze filters records to the requested area, summarizes each unit, and
// evaluates the affordability grid on the combined net rent. Units without
// data contribute nothing to the total rent.
func Analyze(records []model.RentRecord, req model.AnalysisRequest, opts Options) (*model.AnalysisReport, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	// Step a: geography filter
	filtered := calculator.FilterByArea(records, req.AreaField, req.Area)

	// Step b: per-unit statistics
	report := &model.AnalysisReport{
		Request:        req,
		MatchedRecords: len(filtered),
		Units:          make([]model.UnitReport, len(req.Units)),
	}
	for i, spec := range req.Units {
		stats := calculator.ComputeUnitStats(filtered, spec)
		report.Units[i] = model.UnitReport{Index: i + 1, Spec: spec, Stats: stats}
		if stats.HasData() {
			report.TotalAverageRent += stats.AverageRent
		}
	}

	// Step c: net income, annualized then brought back to a monthly figure
	report.MonthlyExpense = req.Expenses.Monthly()
	report.NetMonthlyIncome = calculator.NetMonthlyIncome(report.TotalAverageRent*12, req.Expenses)

	// Step d: scenario grid
	report.Scenarios = calculator.ComputeScenarioGrid(report.NetMonthlyIncome, req.InterestRatePct, opts.terms(), opts.downPayments())

	return report, nil
}

// GroupedStats returns the grouped rent summary for one area.
func GroupedStats(records []model.RentRecord, field model.AreaField, area string, groupByBathrooms bool) ([]model.GroupStats, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: unknown area field %q", calculator.ErrInvalidInput, field)
	}
	return calculator.ComputeGroupedStats(calculator.FilterByArea(records, field, area), groupByBathrooms), nil
}
