package recorder

import "time"

// RefreshEvent records one dataset load attempt.
type RefreshEvent struct {
	Version  string
	Source   string
	Rows     int
	Dropped  int
	Duration time.Duration
	Error    string // empty on success
}

// AnalysisEvent records one analysis run.
type AnalysisEvent struct {
	ID               string  `json:"id"`
	DatasetVersion   string  `json:"dataset_version"`
	AreaField        string  `json:"area_field"`
	Area             string  `json:"area"`
	Units            int     `json:"units"`
	InterestRatePct  float64 `json:"interest_rate_pct"`
	TotalAverageRent float64 `json:"total_average_rent"`
	NetMonthlyIncome float64 `json:"net_monthly_income"`
	// Purchase value of the 30-year / 20% scenario, the dashboard headline.
	HeadlinePurchaseValue float64 `json:"headline_purchase_value"`
}

// AnalysisRow is a stored AnalysisEvent with its timestamp.
type AnalysisRow struct {
	AnalysisEvent
	RecordedAt time.Time
}

// Recorder persists refresh and analysis history.
type Recorder interface {
	RecordRefresh(evt *RefreshEvent) error
	RecordAnalysis(evt *AnalysisEvent) error
	RecentAnalyses(limit int) ([]AnalysisRow, error)
	Close() error
}
