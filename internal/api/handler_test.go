package api

import (
	"bytes"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"RentScope/internal/analysis"
	"RentScope/internal/cache"
	"RentScope/internal/calculator"
	"RentScope/internal/model"
	"RentScope/internal/recorder"
	"RentScope/internal/store"
)

type memRecorder struct {
	recorder.NoopRecorder
	analyses []recorder.AnalysisEvent
}

func (m *memRecorder) RecordAnalysis(evt *recorder.AnalysisEvent) error {
	m.analyses = append(m.analyses, *evt)
	return nil
}

func (m *memRecorder) RecentAnalyses(limit int) ([]recorder.AnalysisRow, error) {
	var rows []recorder.AnalysisRow
	for i := len(m.analyses) - 1; i >= 0 && len(rows) < limit; i-- {
		rows = append(rows, recorder.AnalysisRow{AnalysisEvent: m.analyses[i], RecordedAt: time.Now()})
	}
	return rows, nil
}

func fixtureDataset() *model.Dataset {
	return &model.Dataset{
		Version: "v-test",
		Source:  "mock",
		Records: []model.RentRecord{
			{Area: "Downtown", Neighbourhood: "Old Town", Bedrooms: 2, Bathrooms: 1, MonthlyRent: 1800},
			{Area: "Downtown", Neighbourhood: "Harbour", Bedrooms: 2, Bathrooms: 2, MonthlyRent: 2000},
			{Area: "Downtown", Neighbourhood: "Harbour", Bedrooms: 1, Bathrooms: 1, MonthlyRent: 1400},
			{Area: "Westside", Neighbourhood: "Park", Bedrooms: 3, Bathrooms: 2, MonthlyRent: 2600},
		},
		LoadedAt: time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
	}
}

type testEnv struct {
	server   http.Handler
	store    *store.Manager
	recorder *memRecorder
	cache    *cache.MemoryCache
}

func newTestEnv(t *testing.T, loaded bool, limiter *RateLimiter) *testEnv {
	t.Helper()
	sm, err := store.NewManager("")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if loaded {
		sm.Replace(fixtureDataset())
	}
	rec := &memRecorder{}
	c := cache.NewMemoryCache()
	h := NewHandler(Config{
		Store:          sm,
		Cache:          c,
		CacheTTL:       time.Hour,
		Recorder:       rec,
		Options:        analysis.Options{},
		DefaultRatePct: 5,
	})
	return &testEnv{server: Routes(h, limiter), store: sm, recorder: rec, cache: c}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, false, nil)
	w := env.do(http.MethodGet, "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp statusResponse
	decodeBody(t, w, &resp)
	if resp.Loaded {
		t.Error("expected loaded=false before the first refresh")
	}

	env.store.Replace(fixtureDataset())
	w = env.do(http.MethodGet, "/api/status", "")
	decodeBody(t, w, &resp)
	if !resp.Loaded || resp.State.Current == nil || resp.State.Current.Rows != 4 {
		t.Errorf("unexpected status: %+v", resp)
	}
}

func TestAreas(t *testing.T) {
	env := newTestEnv(t, true, nil)

	w := env.do(http.MethodGet, "/api/areas", "")
	var resp areasResponse
	decodeBody(t, w, &resp)
	if resp.Field != model.FieldGeneralArea || strings.Join(resp.Values, ",") != "Downtown,Westside" {
		t.Errorf("unexpected areas: %+v", resp)
	}

	w = env.do(http.MethodGet, "/api/areas?field=Neighbourhood", "")
	decodeBody(t, w, &resp)
	if strings.Join(resp.Values, ",") != "Harbour,Old Town,Park" {
		t.Errorf("unexpected neighbourhoods: %+v", resp)
	}

	w = env.do(http.MethodGet, "/api/areas?field=Street", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown field, got %d", w.Code)
	}
}

func TestNoDataset(t *testing.T) {
	env := newTestEnv(t, false, nil)
	w := env.do(http.MethodPost, "/api/analysis", `{"area_field":"General Area","area":"Downtown","units":[{"bedrooms":2}]}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, true, nil)
	w := env.do(http.MethodPost, "/api/stats", `{"area_field":"General Area","area":"Downtown","group_by_bathrooms":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp statsResponse
	decodeBody(t, w, &resp)
	if len(resp.Groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(resp.Groups))
	}
	first := resp.Groups[0]
	if first.Bedrooms != 1 || first.Bathrooms != 1 || first.Stats.AverageRent != 1400 {
		t.Errorf("unexpected first group: %+v", first)
	}
}

func TestAnalysis_CachedAndRecorded(t *testing.T) {
	env := newTestEnv(t, true, nil)
	body := `{"area_field":"General Area","area":"Downtown","units":[{"bedrooms":2},{"bedrooms":5}]}`

	w := env.do(http.MethodPost, "/api/analysis", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Cache") != "MISS" {
		t.Errorf("expected cache miss on first request")
	}
	var report model.AnalysisReport
	decodeBody(t, w, &report)

	if report.ID == "" || report.DatasetVersion != "v-test" {
		t.Errorf("expected id and dataset version, got %q %q", report.ID, report.DatasetVersion)
	}
	if report.TotalAverageRent != 1900 || report.Units[1].Stats.HasData() {
		t.Errorf("unexpected totals: %+v", report.Units)
	}
	if report.Request.InterestRatePct != 5 {
		t.Errorf("expected default rate 5, got %v", report.Request.InterestRatePct)
	}
	if len(report.Scenarios) != 21 {
		t.Fatalf("expected 21 scenarios, got %d", len(report.Scenarios))
	}

	want, _ := calculator.ComputeAffordability(1900, 5, 30, 20)
	if len(env.recorder.analyses) != 1 {
		t.Fatalf("expected one recorded analysis, got %d", len(env.recorder.analyses))
	}
	if got := env.recorder.analyses[0].HeadlinePurchaseValue; math.Abs(got-want.TotalPurchaseValue) > 1e-6 {
		t.Errorf("expected headline %.2f, got %.2f", want.TotalPurchaseValue, got)
	}

	w = env.do(http.MethodPost, "/api/analysis", body)
	if w.Header().Get("X-Cache") != "HIT" {
		t.Errorf("expected cache hit on repeated request")
	}
	var again model.AnalysisReport
	decodeBody(t, w, &again)
	if again.ID != report.ID {
		t.Errorf("expected cached report id %s, got %s", report.ID, again.ID)
	}
	if len(env.recorder.analyses) != 1 {
		t.Errorf("expected cache hit not to be recorded again")
	}

	// A new dataset version invalidates the cache.
	ds := fixtureDataset()
	ds.Version = "v-next"
	env.store.Replace(ds)
	w = env.do(http.MethodPost, "/api/analysis", body)
	if w.Header().Get("X-Cache") != "MISS" {
		t.Errorf("expected miss after dataset refresh")
	}
}

func TestAnalysis_ZeroRateIsKept(t *testing.T) {
	env := newTestEnv(t, true, nil)
	w := env.do(http.MethodPost, "/api/analysis", `{"area_field":"General Area","area":"Downtown","units":[{"bedrooms":2}],"interest_rate_pct":0}`)
	var report model.AnalysisReport
	decodeBody(t, w, &report)
	if report.Request.InterestRatePct != 0 {
		t.Errorf("expected explicit zero rate, got %v", report.Request.InterestRatePct)
	}
	// 20-year, 20% down at 0%: 1900 * 240 / 0.8
	if got := report.Scenarios[0].Result.TotalPurchaseValue; math.Abs(got-570000) > 1e-6 {
		t.Errorf("expected 570000, got %.2f", got)
	}
}

func TestAnalysis_BadRequests(t *testing.T) {
	env := newTestEnv(t, true, nil)
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{invalid-json}`},
		{"unknown field", `{"area_field":"General Area","area":"Downtown","units":[{"bedrooms":2}],"colour":"red"}`},
		{"no units", `{"area_field":"General Area","area":"Downtown","units":[]}`},
		{"zero bedrooms", `{"area_field":"General Area","area":"Downtown","units":[{"bedrooms":0}]}`},
		{"bad area field", `{"area_field":"Street","area":"Downtown","units":[{"bedrooms":2}]}`},
		{"missing area", `{"area_field":"General Area","units":[{"bedrooms":2}]}`},
		{"negative expense", `{"area_field":"General Area","area":"Downtown","units":[{"bedrooms":2}],"expenses":{"taxes":-1}}`},
		{"negative rate", `{"area_field":"General Area","area":"Downtown","units":[{"bedrooms":2}],"interest_rate_pct":-1}`},
	}
	for _, tt := range tests {
		w := env.do(http.MethodPost, "/api/analysis", tt.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tt.name, w.Code)
		}
	}
}

func TestAnalysis_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, true, nil)
	w := env.do(http.MethodGet, "/api/analysis", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestAffordability(t *testing.T) {
	env := newTestEnv(t, false, nil)

	w := env.do(http.MethodPost, "/api/affordability", `{"net_monthly_income":3000,"interest_rate_pct":5,"term_years":30,"down_payment_pct":20}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp affordabilityResponse
	decodeBody(t, w, &resp)
	if math.Abs(resp.Result.MaxMortgage-558844.85) > 1e-2 {
		t.Errorf("expected max mortgage 558844.85, got %.2f", resp.Result.MaxMortgage)
	}
	if resp.Result.Status != model.StatusOK {
		t.Errorf("expected ok status, got %s", resp.Result.Status)
	}

	w = env.do(http.MethodPost, "/api/affordability", `{"net_monthly_income":-10,"term_years":30,"down_payment_pct":20}`)
	decodeBody(t, w, &resp)
	if w.Code != http.StatusOK || resp.Result.Status != model.StatusInsufficientIncome {
		t.Errorf("expected insufficient income, got %d %+v", w.Code, resp.Result)
	}
	if resp.Scenario.InterestRatePct != 5 {
		t.Errorf("expected default rate, got %v", resp.Scenario.InterestRatePct)
	}

	for _, body := range []string{
		`{"net_monthly_income":3000,"term_years":30,"down_payment_pct":100}`,
		`{"net_monthly_income":3000,"term_years":-5,"down_payment_pct":20}`,
		`{"net_monthly_income":3000,"down_payment_pct":20}`,
		`{"net_monthly_income":3000,"interest_rate_pct":-2,"term_years":30,"down_payment_pct":20}`,
	} {
		w = env.do(http.MethodPost, "/api/affordability", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t, true, nil)
	env.do(http.MethodPost, "/api/analysis", `{"area_field":"General Area","area":"Downtown","units":[{"bedrooms":2}]}`)
	env.do(http.MethodPost, "/api/analysis", `{"area_field":"Neighbourhood","area":"Harbour","units":[{"bedrooms":1}]}`)

	w := env.do(http.MethodGet, "/api/history?limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var entries []historyEntry
	decodeBody(t, w, &entries)
	if len(entries) != 1 || entries[0].Area != "Harbour" {
		t.Errorf("unexpected history: %+v", entries)
	}

	w = env.do(http.MethodGet, "/api/history?limit=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	env := newTestEnv(t, true, limiter)

	for i := 0; i < 2; i++ {
		if w := env.do(http.MethodGet, "/api/status", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	if w := env.do(http.MethodGet, "/api/status", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("a") {
		t.Fatal("expected first request allowed")
	}
	if limiter.Allow("a") {
		t.Error("expected bucket empty")
	}
	if !limiter.Allow("b") {
		t.Error("expected separate bucket per client")
	}
	now = now.Add(time.Minute)
	if !limiter.Allow("a") {
		t.Error("expected refill after window")
	}
}

func TestAffordability_OverflowRejected(t *testing.T) {
	env := newTestEnv(t, false, nil)
	w := env.do(http.MethodPost, "/api/affordability", `{"net_monthly_income":1e307,"interest_rate_pct":0,"term_years":30,"down_payment_pct":20}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var resp errorResponse
	decodeBody(t, w, &resp)
	if !strings.Contains(resp.Error, "invalid input") {
		t.Errorf("unexpected error body: %+v", resp)
	}
}

func TestWriteJSON_EncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]float64{"v": math.Inf(1)})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp errorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "internal error" {
		t.Errorf("unexpected body: %q", w.Body.String())
	}
}

func TestRateLimiter_GradualRefill(t *testing.T) {
	limiter := NewRateLimiter(4, time.Minute)
	defer limiter.Stop()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 4; i++ {
		if !limiter.Allow("a") {
			t.Fatalf("request %d: expected burst up to capacity", i+1)
		}
	}
	if limiter.Allow("a") {
		t.Fatal("expected empty bucket")
	}

	// one token drips back every 15s
	now = now.Add(10 * time.Second)
	if limiter.Allow("a") {
		t.Error("expected no token before 15s")
	}
	now = now.Add(5 * time.Second)
	if !limiter.Allow("a") {
		t.Error("expected one token after 15s")
	}
	if limiter.Allow("a") {
		t.Error("expected only one token after 15s")
	}

	// a long idle period never overfills the bucket
	now = now.Add(time.Hour)
	for i := 0; i < 4; i++ {
		if !limiter.Allow("a") {
			t.Fatalf("request %d: expected refilled bucket", i+1)
		}
	}
	if limiter.Allow("a") {
		t.Error("expected bucket capped at capacity")
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(2 * time.Hour)
	limiter.Allow("b")
	limiter.evictIdle()

	if _, ok := limiter.clients["a"]; ok {
		t.Error("expected idle client evicted")
	}
	if _, ok := limiter.clients["b"]; !ok {
		t.Error("expected active client kept")
	}
}
