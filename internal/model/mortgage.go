package model

// ExpenseInputs are the optional annual operating expenses of a property.
type ExpenseInputs struct {
	Maintenance   float64 `json:"maintenance" yaml:"maintenance" validate:"gte=0"`
	Insurance     float64 `json:"insurance" yaml:"insurance" validate:"gte=0"`
	Taxes         float64 `json:"taxes" yaml:"taxes" validate:"gte=0"`
	HOAFees       float64 `json:"hoa_fees" yaml:"hoa_fees" validate:"gte=0"`
	OtherExpenses float64 `json:"other_expenses" yaml:"other_expenses" validate:"gte=0"`
}

// TotalAnnual returns the sum of all annual expenses.
func (e ExpenseInputs) TotalAnnual() float64 {
	return e.Maintenance + e.Insurance + e.Taxes + e.HOAFees + e.OtherExpenses
}

// Monthly returns the annual total spread over 12 months.
func (e ExpenseInputs) Monthly() float64 {
	return e.TotalAnnual() / 12
}

// MortgageScenario is one cell of the affordability grid.
type MortgageScenario struct {
	TermYears       int     `json:"term_years"`
	DownPaymentPct  float64 `json:"down_payment_pct"`
	InterestRatePct float64 `json:"interest_rate_pct"`
}

// AffordabilityStatus tells whether a result carries computed amounts.
type AffordabilityStatus string

const (
	StatusOK                 AffordabilityStatus = "ok"
	StatusInsufficientIncome AffordabilityStatus = "insufficient_income"
	StatusInvalidInput       AffordabilityStatus = "invalid_input"
)

// AffordabilityResult is the purchase a net monthly income can carry.
// Amounts are zero unless Status is StatusOK.
type AffordabilityResult struct {
	MaxMortgage         float64             `json:"max_mortgage"`
	RequiredDownPayment float64             `json:"required_down_payment"`
	TotalPurchaseValue  float64             `json:"total_purchase_value"`
	Status              AffordabilityStatus `json:"status"`
}

// ScenarioResult pairs a scenario with its affordability outcome.
type ScenarioResult struct {
	Scenario MortgageScenario    `json:"scenario"`
	Result   AffordabilityResult `json:"result"`
	Error    string              `json:"error,omitempty"`
}
