package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"RentScope/internal/analysis"
	"RentScope/internal/api"
	"RentScope/internal/cache"
	"RentScope/internal/calculator"
	"RentScope/internal/collector"
	"RentScope/internal/config"
	"RentScope/internal/model"
	"RentScope/internal/notifier"
	"RentScope/internal/recorder"
	"RentScope/internal/scheduler"
	"RentScope/internal/store"
)

type globalOptions struct {
	configPath string
	source     string
}

type analyzeOptions struct {
	field    string
	area     string
	units    []string
	rate     float64
	rateSet  bool
	expenses model.ExpenseInputs
	asJSON   bool
}

// loadConfig reads the config file and applies the --source override.
// Commands that never touch the dataset skip source validation.
func loadConfig(opts *globalOptions, needSource bool) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.source != "" {
		cfg.DataSource.Path = opts.source
		cfg.DataSource.URL = ""
		cfg.DataSource.FolderID = ""
	}
	if needSource {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}
	return cfg, nil
}

func buildLoader(cfg *config.Config) collector.Loader {
	switch {
	case cfg.DataSource.FolderID != "":
		return collector.NewFolderLoader(cfg.DataSource.DriveAPI, cfg.DataSource.FolderID, cfg.DataSource.AccessToken, cfg.Proxy)
	case cfg.DataSource.URL != "":
		return collector.NewURLLoader(cfg.DataSource.URL, cfg.Proxy)
	default:
		return collector.NewFileLoader(cfg.DataSource.Path)
	}
}

func analysisOptions(cfg *config.Config) analysis.Options {
	return analysis.Options{Terms: cfg.Analysis.Terms, DownPayments: cfg.Analysis.DownPayments}
}

func loadDataset(ctx context.Context, opts *globalOptions) (*config.Config, *model.Dataset, error) {
	cfg, err := loadConfig(opts, true)
	if err != nil {
		return nil, nil, err
	}
	ds, err := collector.NewCollector(buildLoader(cfg)).Collect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cfg, ds, nil
}

// buildCache prefers Redis and falls back to process memory when it is
// unset or unreachable.
func buildCache(ctx context.Context, cfg *config.Config) (cache.Cache, func()) {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewMemoryCache(), func() {}
	}
	rc := cache.NewRedisCache(cfg.Cache.RedisAddr)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Printf("[WARN] redis %s unreachable, using memory cache: %v", cfg.Cache.RedisAddr, err)
		_ = rc.Close()
		return cache.NewMemoryCache(), func() {}
	}
	log.Printf("[INFO] analysis cache: redis %s", cfg.Cache.RedisAddr)
	return rc, func() { _ = rc.Close() }
}

func buildRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func runServe(opts *globalOptions, loadOnStart bool) error {
	log.Println("[INFO] RentScope starting...")

	cfg, err := loadConfig(opts, true)
	if err != nil {
		return err
	}
	cacheTTL, err := time.ParseDuration(cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}

	loader := buildLoader(cfg)
	log.Printf("[INFO] data source: %s", loader.Name())
	col := collector.NewCollector(loader)

	sm, err := store.NewManager(cfg.StateFile)
	if err != nil {
		return fmt.Errorf("init dataset store: %w", err)
	}

	rec := buildRecorder(cfg)
	defer rec.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, closeCache := buildCache(ctx, cfg)
	defer closeCache()

	// A nil *TelegramNotifier must not reach the scheduler as a non-nil Sender.
	var (
		tn     *notifier.TelegramNotifier
		sender scheduler.Sender
	)
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, col, sm, sender, rec)
	if err := sched.RegisterRefresh(cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if loadOnStart {
		if err := sched.RunRefreshNow(); err != nil {
			log.Printf("[WARN] initial load failed, serving 503 until the next refresh: %v", err)
		}
	}

	var limiter *api.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		window, err := time.ParseDuration(cfg.HTTP.RateLimitWindow)
		if err != nil {
			return fmt.Errorf("http.rate_limit_window: %w", err)
		}
		limiter = api.NewRateLimiter(cfg.HTTP.RateLimit, window)
		defer limiter.Stop()
	}

	handler := api.NewHandler(api.Config{
		Store:          sm,
		Cache:          c,
		CacheTTL:       cacheTTL,
		Recorder:       rec,
		Options:        analysisOptions(cfg),
		DefaultRatePct: cfg.Analysis.InterestRatePct,
	})
	server := api.NewServer(cfg.HTTP.Addr, api.Routes(handler, limiter))

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("[INFO] API listening on %s", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.Println("[INFO] RentScope is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}

	log.Println("[INFO] RentScope stopped")
	return nil
}

func parseField(s string) (model.AreaField, error) {
	field := model.AreaField(s)
	if !field.Valid() {
		return "", fmt.Errorf("unknown field %q, want %q or %q", s, model.FieldGeneralArea, model.FieldNeighbourhood)
	}
	return field, nil
}

func runAreas(ctx context.Context, opts *globalOptions, fieldName string) error {
	field, err := parseField(fieldName)
	if err != nil {
		return err
	}
	_, ds, err := loadDataset(ctx, opts)
	if err != nil {
		return err
	}
	printValues(calculator.DistinctValues(ds.Records, field))
	return nil
}

func runStats(ctx context.Context, opts *globalOptions, fieldName, area string, byBathrooms bool) error {
	field, err := parseField(fieldName)
	if err != nil {
		return err
	}
	_, ds, err := loadDataset(ctx, opts)
	if err != nil {
		return err
	}
	groups, err := analysis.GroupedStats(ds.Records, field, area, byBathrooms)
	if err != nil {
		return err
	}
	printHTML(notifier.FormatGroupedStats(area, groups))
	return nil
}

// parseUnit reads BEDROOMS or BEDROOMS:BATHROOMS.
func parseUnit(s string) (model.UnitSpec, error) {
	bedPart, bathPart, hasBath := strings.Cut(strings.TrimSpace(s), ":")
	beds, err := strconv.Atoi(strings.TrimSpace(bedPart))
	if err != nil {
		return model.UnitSpec{}, fmt.Errorf("unit %q: bedrooms: %w", s, err)
	}
	spec := model.UnitSpec{Bedrooms: beds}
	if hasBath {
		baths, err := strconv.Atoi(strings.TrimSpace(bathPart))
		if err != nil {
			return model.UnitSpec{}, fmt.Errorf("unit %q: bathrooms: %w", s, err)
		}
		spec.Bathrooms = baths
	}
	return spec, nil
}

func buildRequest(a analyzeOptions, defaultRatePct float64) (model.AnalysisRequest, error) {
	req := model.AnalysisRequest{
		AreaField:       model.AreaField(a.field),
		Area:            a.area,
		Expenses:        a.expenses,
		InterestRatePct: defaultRatePct,
	}
	if a.rateSet {
		req.InterestRatePct = a.rate
	}
	for _, u := range a.units {
		spec, err := parseUnit(u)
		if err != nil {
			return req, err
		}
		req.Units = append(req.Units, spec)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(req); err != nil {
		return req, fmt.Errorf("invalid analysis request: %w", err)
	}
	return req, nil
}

func runAnalyze(ctx context.Context, opts *globalOptions, a analyzeOptions) error {
	cfg, err := loadConfig(opts, true)
	if err != nil {
		return err
	}
	req, err := buildRequest(a, cfg.Analysis.InterestRatePct)
	if err != nil {
		return err
	}
	ds, err := collector.NewCollector(buildLoader(cfg)).Collect(ctx)
	if err != nil {
		return err
	}

	report, err := analysis.Analyze(ds.Records, req, analysisOptions(cfg))
	if err != nil {
		return err
	}
	report.ID = uuid.NewString()
	report.DatasetVersion = ds.Version

	if a.asJSON {
		return printJSON(report)
	}
	printHTML(notifier.FormatAnalysisReport(report))
	return nil
}

func runAfford(opts *globalOptions, income, rate float64, rateSet bool, term int, down float64, downSet bool) error {
	cfg, err := loadConfig(opts, false)
	if err != nil {
		return err
	}
	if !rateSet {
		rate = cfg.Analysis.InterestRatePct
	}

	if term != 0 {
		result, err := calculator.ComputeAffordability(income, rate, term, down)
		if err != nil {
			return err
		}
		printAffordability(model.ScenarioResult{
			Scenario: model.MortgageScenario{TermYears: term, DownPaymentPct: down, InterestRatePct: rate},
			Result:   result,
		}, income)
		return nil
	}

	downPayments := cfg.Analysis.DownPayments
	if downSet {
		downPayments = []float64{down}
	}
	if err := calculator.ValidateGridInputs(0, model.ExpenseInputs{}, rate); err != nil {
		return err
	}
	printGrid(calculator.ComputeScenarioGrid(income, rate, cfg.Analysis.Terms, downPayments), income)
	return nil
}
