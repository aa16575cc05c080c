package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected default addr, got %q", cfg.HTTP.Addr)
	}
	if cfg.Schedule.RefreshCron != "0 0 6 * * *" {
		t.Errorf("expected default cron, got %q", cfg.Schedule.RefreshCron)
	}
	if len(cfg.Analysis.Terms) != 3 || len(cfg.Analysis.DownPayments) != 7 {
		t.Errorf("expected 3x7 default grid, got %v x %v", cfg.Analysis.Terms, cfg.Analysis.DownPayments)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without a data source")
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
data_source:
  url: https://example.com/rent.xlsx
analysis:
  interest_rate_pct: 4.5
  terms: [15, 30]
http:
  addr: ":9000"
`)
	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("SQLITE_PATH", "/tmp/rentscope.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.URL != "https://example.com/rent.xlsx" {
		t.Errorf("unexpected url %q", cfg.DataSource.URL)
	}
	if cfg.Analysis.InterestRatePct != 4.5 {
		t.Errorf("expected rate 4.5, got %.2f", cfg.Analysis.InterestRatePct)
	}
	if len(cfg.Analysis.Terms) != 2 || cfg.Analysis.Terms[0] != 15 {
		t.Errorf("unexpected terms %v", cfg.Analysis.Terms)
	}
	if cfg.HTTP.Addr != ":9100" {
		t.Errorf("expected env override, got %q", cfg.HTTP.Addr)
	}
	if cfg.Database.SQLitePath != "/tmp/rentscope.db" {
		t.Errorf("expected sqlite path from env, got %q", cfg.Database.SQLitePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "data_source: [unterminated")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, _ := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		cfg.DataSource.Path = "rent.xlsx"
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := base()
	c.DataSource.FolderID = "abc"
	if err := c.Validate(); err == nil {
		t.Error("expected error for folder without token")
	}

	c = base()
	c.Telegram.BotToken = "token"
	if err := c.Validate(); err == nil {
		t.Error("expected error for bot token without chat id")
	}

	c = base()
	c.Analysis.DownPayments = []float64{20, 100}
	if err := c.Validate(); err == nil {
		t.Error("expected error for 100% down payment")
	}

	c = base()
	c.Analysis.InterestRatePct = -1
	if err := c.Validate(); err == nil {
		t.Error("expected error for negative rate")
	}
}

func TestLoad_InterestRateDefaultAndExplicitZero(t *testing.T) {
	cfg, err := Load(writeConfig(t, "analysis:\n  terms: [30]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Analysis.InterestRatePct != DefaultInterestRatePct {
		t.Errorf("expected default rate %.2f, got %.2f", DefaultInterestRatePct, cfg.Analysis.InterestRatePct)
	}

	cfg, err = Load(writeConfig(t, "analysis:\n  interest_rate_pct: 0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Analysis.InterestRatePct != 0 {
		t.Errorf("expected explicit 0%% rate to be kept, got %.2f", cfg.Analysis.InterestRatePct)
	}

	t.Setenv("INTEREST_RATE_PCT", "0")
	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Analysis.InterestRatePct != 0 {
		t.Errorf("expected 0%% rate from env, got %.2f", cfg.Analysis.InterestRatePct)
	}
}
