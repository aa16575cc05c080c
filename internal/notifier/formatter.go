package notifier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"RentScope/internal/model"
	"RentScope/internal/store"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const noData = "No data available."

// FormatCurrency renders an amount as whole dollars with thousands
// separators. Cents are truncated, not rounded. Non-finite amounts render
// as "n/a".
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	whole := decimal.NewFromFloat(v).Truncate(0)
	sign := ""
	if whole.IsNegative() {
		sign = "-"
		whole = whole.Abs()
	}
	return sign + "$" + humanize.BigComma(whole.BigInt())
}

func unitLabel(spec model.UnitSpec) string {
	if spec.HasBathrooms() {
		return fmt.Sprintf("%d bed / %d bath", spec.Bedrooms, spec.Bathrooms)
	}
	return fmt.Sprintf("%d bed", spec.Bedrooms)
}

// FormatUnitStats formats the rent summary of one unit category.
func FormatUnitStats(spec model.UnitSpec, stats model.UnitStats) string {
	if !stats.HasData() {
		return fmt.Sprintf("%s: %s", unitLabel(spec), noData)
	}
	return fmt.Sprintf("%s: avg %s | median %s | range %s to %s (%d listings)",
		unitLabel(spec),
		FormatCurrency(stats.AverageRent),
		FormatCurrency(stats.MedianRent),
		FormatCurrency(stats.MinRent),
		FormatCurrency(stats.MaxRent),
		stats.Count)
}

// FormatGroupedStats formats a grouped rent summary for one area.
func FormatGroupedStats(area string, groups []model.GroupStats) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏘 <b>%s</b>\n\n", area))
	if len(groups) == 0 {
		b.WriteString(noData)
		return b.String()
	}
	for _, g := range groups {
		spec := model.UnitSpec{Bedrooms: g.Bedrooms, Bathrooms: g.Bathrooms}
		b.WriteString(FormatUnitStats(spec, g.Stats))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatAnalysisReport lays out a full analysis: unit stats, totals, then
// one section per mortgage term.
func FormatAnalysisReport(r *model.AnalysisReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s: %s</b>\n", r.Request.AreaField, r.Request.Area))
	b.WriteString(fmt.Sprintf("Listings matched: %d\n\n", r.MatchedRecords))

	for _, u := range r.Units {
		b.WriteString(fmt.Sprintf("Unit %d. %s\n", u.Index, FormatUnitStats(u.Spec, u.Stats)))
	}

	b.WriteString(fmt.Sprintf("\nTotal average rent: %s\n", FormatCurrency(r.TotalAverageRent)))
	if r.MonthlyExpense > 0 {
		b.WriteString(fmt.Sprintf("Total monthly expense: %s\n", FormatCurrency(r.MonthlyExpense)))
	}
	b.WriteString(fmt.Sprintf("Net monthly income: %s\n", FormatCurrency(r.NetMonthlyIncome)))
	b.WriteString(fmt.Sprintf("Interest rate: %.2f%%\n", r.Request.InterestRatePct))

	term := 0
	for _, s := range r.Scenarios {
		if s.Scenario.TermYears != term {
			term = s.Scenario.TermYears
			b.WriteString(fmt.Sprintf("\n<b>%d-year mortgage</b>\n", term))
		}
		b.WriteString(FormatScenario(s, r.NetMonthlyIncome))
	}
	return b.String()
}

// FormatScenario formats one grid cell. The monthly mortgage payment shown
// is the net monthly income the scenario is sized on.
func FormatScenario(s model.ScenarioResult, netMonthlyIncome float64) string {
	prefix := fmt.Sprintf("  %.0f%% down: ", s.Scenario.DownPaymentPct)
	switch s.Result.Status {
	case model.StatusInvalidInput:
		return prefix + "invalid scenario (" + s.Error + ")\n"
	case model.StatusInsufficientIncome:
		return prefix + "insufficient income\n"
	}
	return fmt.Sprintf("%sTotal Mortgage Value %s | Required Down Payment %s | Monthly Mortgage Payment %s\n",
		prefix,
		FormatCurrency(s.Result.TotalPurchaseValue),
		FormatCurrency(s.Result.RequiredDownPayment),
		FormatCurrency(netMonthlyIncome))
}

// FormatDatasetStatus formats the loaded dataset and refresh history.
func FormatDatasetStatus(state store.State) string {
	var b strings.Builder
	b.WriteString("📦 <b>Dataset status</b>\n\n")
	if state.Current == nil {
		b.WriteString("No dataset loaded yet.\n")
	} else {
		b.WriteString(fmt.Sprintf("Source: %s\n", state.Current.Source))
		b.WriteString(fmt.Sprintf("Rows: %d (dropped %d)\n", state.Current.Rows, state.Current.Dropped))
		b.WriteString(fmt.Sprintf("Version: %s\n", state.Current.Version))
		b.WriteString(fmt.Sprintf("Loaded: %s\n", state.Current.LoadedAt.Format("2006-01-02 15:04")))
	}
	b.WriteString(fmt.Sprintf("Refreshes: %d ok, %d failed\n", state.RefreshCount, state.FailedRefreshes))
	if state.LastError != "" {
		b.WriteString(fmt.Sprintf("Last error: %s\n", state.LastError))
	}
	return b.String()
}

// FormatRefreshSummary formats the notification sent after a refresh.
func FormatRefreshSummary(info model.DatasetInfo, areas, neighbourhoods int, took time.Duration) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔄 <b>Rent data refreshed</b> | %s\n\n", info.LoadedAt.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Source: %s\n", info.Source))
	b.WriteString(fmt.Sprintf("Rows: %d", info.Rows))
	if info.Dropped > 0 {
		b.WriteString(fmt.Sprintf(" (%d incomplete rows dropped)", info.Dropped))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("General areas: %d | Neighbourhoods: %d\n", areas, neighbourhoods))
	b.WriteString(fmt.Sprintf("Took %s", took.Round(time.Millisecond)))
	return b.String()
}
