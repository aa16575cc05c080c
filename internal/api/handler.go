package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"RentScope/internal/analysis"
	"RentScope/internal/cache"
	"RentScope/internal/calculator"
	"RentScope/internal/model"
	"RentScope/internal/recorder"
	"RentScope/internal/store"
)

const maxBodyBytes = 1 << 20

// Handler serves the rent and affordability endpoints.
type Handler struct {
	store          *store.Manager
	cache          cache.Cache
	cacheTTL       time.Duration
	recorder       recorder.Recorder
	options        analysis.Options
	defaultRatePct float64
	validate       *validator.Validate
}

// Config carries the handler dependencies. Cache and Recorder may be nil.
type Config struct {
	Store          *store.Manager
	Cache          cache.Cache
	CacheTTL       time.Duration
	Recorder       recorder.Recorder
	Options        analysis.Options
	DefaultRatePct float64
}

func NewHandler(cfg Config) *Handler {
	rec := cfg.Recorder
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	c := cfg.Cache
	if c == nil {
		c = cache.NewMemoryCache()
	}
	return &Handler{
		store:          cfg.Store,
		cache:          c,
		cacheTTL:       cfg.CacheTTL,
		recorder:       rec,
		options:        cfg.Options,
		defaultRatePct: cfg.DefaultRatePct,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

type statusResponse struct {
	Loaded bool        `json:"loaded"`
	State  store.State `json:"state"`
}

// Status reports the loaded dataset and refresh history.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	_, err := h.store.Current()
	writeJSON(w, http.StatusOK, statusResponse{Loaded: err == nil, State: h.store.GetState()})
}

type areasResponse struct {
	Field  model.AreaField `json:"field"`
	Values []string        `json:"values"`
}

// Areas lists the distinct values of a geography column.
func (h *Handler) Areas(w http.ResponseWriter, r *http.Request) {
	field := model.AreaField(r.URL.Query().Get("field"))
	if field == "" {
		field = model.FieldGeneralArea
	}
	if !field.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown field %q", field))
		return
	}
	ds, ok := h.dataset(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, areasResponse{
		Field:  field,
		Values: calculator.DistinctValues(ds.Records, field),
	})
}

type statsRequest struct {
	AreaField        model.AreaField `json:"area_field" validate:"required,oneof='General Area' Neighbourhood"`
	Area             string          `json:"area" validate:"required"`
	GroupByBathrooms bool            `json:"group_by_bathrooms"`
}

type statsResponse struct {
	AreaField model.AreaField    `json:"area_field"`
	Area      string             `json:"area"`
	Groups    []model.GroupStats `json:"groups"`
}

// Stats returns the grouped rent summary of one area.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if !h.decode(w, r, &req) {
		return
	}
	ds, ok := h.dataset(w)
	if !ok {
		return
	}
	groups, err := analysis.GroupedStats(ds.Records, req.AreaField, req.Area, req.GroupByBathrooms)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{AreaField: req.AreaField, Area: req.Area, Groups: groups})
}

// analysisRequest is the wire form of model.AnalysisRequest. An omitted
// interest rate selects the configured default.
type analysisRequest struct {
	AreaField       model.AreaField     `json:"area_field" validate:"required,oneof='General Area' Neighbourhood"`
	Area            string              `json:"area" validate:"required"`
	Units           []model.UnitSpec    `json:"units" validate:"required,min=1,dive"`
	Expenses        model.ExpenseInputs `json:"expenses"`
	InterestRatePct *float64            `json:"interest_rate_pct" validate:"omitempty,gte=0"`
}

func (a analysisRequest) toModel(defaultRatePct float64) model.AnalysisRequest {
	rate := defaultRatePct
	if a.InterestRatePct != nil {
		rate = *a.InterestRatePct
	}
	return model.AnalysisRequest{
		AreaField:       a.AreaField,
		Area:            a.Area,
		Units:           a.Units,
		Expenses:        a.Expenses,
		InterestRatePct: rate,
	}
}

// Analysis runs a full multi-unit analysis against the current dataset.
// Reports are cached per dataset version and request.
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	var body analysisRequest
	if !h.decode(w, r, &body) {
		return
	}
	req := body.toModel(h.defaultRatePct)

	ds, ok := h.dataset(w)
	if !ok {
		return
	}

	key, err := cache.Key("analysis", ds.Version, req)
	if err != nil {
		log.Printf("[WARN] analysis cache key: %v", err)
	}
	if key != "" {
		var cached model.AnalysisReport
		if cache.GetJSON(r.Context(), h.cache, key, &cached) {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, &cached)
			return
		}
	}

	report, err := analysis.Analyze(ds.Records, req, h.options)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	report.ID = uuid.NewString()
	report.DatasetVersion = ds.Version

	if key != "" {
		if err := cache.SetJSON(r.Context(), h.cache, key, report, h.cacheTTL); err != nil {
			log.Printf("[WARN] cache analysis %s: %v", report.ID, err)
		}
	}
	if err := h.recorder.RecordAnalysis(analysisEvent(report)); err != nil {
		log.Printf("[ERROR] record analysis: %v", err)
	}

	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, report)
}

// headline is the scenario shown first on the dashboard.
var headline = model.MortgageScenario{TermYears: 30, DownPaymentPct: 20}

func analysisEvent(r *model.AnalysisReport) *recorder.AnalysisEvent {
	evt := &recorder.AnalysisEvent{
		ID:               r.ID,
		DatasetVersion:   r.DatasetVersion,
		AreaField:        string(r.Request.AreaField),
		Area:             r.Request.Area,
		Units:            len(r.Request.Units),
		InterestRatePct:  r.Request.InterestRatePct,
		TotalAverageRent: r.TotalAverageRent,
		NetMonthlyIncome: r.NetMonthlyIncome,
	}
	for _, s := range r.Scenarios {
		if s.Scenario.TermYears == headline.TermYears && s.Scenario.DownPaymentPct == headline.DownPaymentPct {
			evt.HeadlinePurchaseValue = s.Result.TotalPurchaseValue
			break
		}
	}
	return evt
}

type affordabilityRequest struct {
	NetMonthlyIncome float64  `json:"net_monthly_income"`
	InterestRatePct  *float64 `json:"interest_rate_pct"`
	TermYears        int      `json:"term_years" validate:"required"`
	DownPaymentPct   float64  `json:"down_payment_pct"`
}

type affordabilityResponse struct {
	Scenario model.MortgageScenario    `json:"scenario"`
	Result   model.AffordabilityResult `json:"result"`
}

// Affordability evaluates a single scenario. Range checks are left to the
// calculator so the API and the CLI reject the same inputs.
func (h *Handler) Affordability(w http.ResponseWriter, r *http.Request) {
	var req affordabilityRequest
	if !h.decode(w, r, &req) {
		return
	}
	rate := h.defaultRatePct
	if req.InterestRatePct != nil {
		rate = *req.InterestRatePct
	}

	result, err := calculator.ComputeAffordability(req.NetMonthlyIncome, rate, req.TermYears, req.DownPaymentPct)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, affordabilityResponse{
		Scenario: model.MortgageScenario{
			TermYears:       req.TermYears,
			DownPaymentPct:  req.DownPaymentPct,
			InterestRatePct: rate,
		},
		Result: result,
	})
}

type historyEntry struct {
	recorder.AnalysisEvent
	RecordedAt time.Time `json:"recorded_at"`
}

// History lists recent analysis runs, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	rows, err := h.recorder.RecentAnalyses(limit)
	if err != nil {
		log.Printf("[ERROR] recent analyses: %v", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	out := make([]historyEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, historyEntry{AnalysisEvent: row.AnalysisEvent, RecordedAt: row.RecordedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) dataset(w http.ResponseWriter) (*model.Dataset, bool) {
	ds, err := h.store.Current()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return ds, true
}

// decode reads a JSON body into v and validates it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func writeCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calculator.ErrInvalidInput), errors.Is(err, analysis.ErrNoUnits):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[ERROR] %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeJSON encodes v before writing the status so an encoding failure
// still yields a complete 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("[ERROR] encode response: %v", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
