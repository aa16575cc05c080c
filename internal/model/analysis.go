package model

// AnalysisRequest carries every user input of one affordability analysis.
type AnalysisRequest struct {
	AreaField       AreaField     `json:"area_field" validate:"required,oneof='General Area' Neighbourhood"`
	Area            string        `json:"area" validate:"required"`
	Units           []UnitSpec    `json:"units" validate:"required,min=1,dive"`
	Expenses        ExpenseInputs `json:"expenses"`
	InterestRatePct float64       `json:"interest_rate_pct" validate:"gte=0"`
}

// UnitReport is the rent summary of one requested unit.
type UnitReport struct {
	Index int       `json:"index"` // 1-based, in request order
	Spec  UnitSpec  `json:"spec"`
	Stats UnitStats `json:"stats"`
}

// AnalysisReport is the output of a full analysis run.
type AnalysisReport struct {
	ID               string           `json:"id"`
	DatasetVersion   string           `json:"dataset_version,omitempty"`
	Request          AnalysisRequest  `json:"request"`
	MatchedRecords   int              `json:"matched_records"`
	Units            []UnitReport     `json:"units"`
	TotalAverageRent float64          `json:"total_average_rent"`
	MonthlyExpense   float64          `json:"monthly_expense"`
	NetMonthlyIncome float64          `json:"net_monthly_income"`
	Scenarios        []ScenarioResult `json:"scenarios"`
}
