package main

import (
	"os"
	"path/filepath"
	"testing"

	"RentScope/internal/model"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    model.UnitSpec
		wantErr bool
	}{
		{"2", model.UnitSpec{Bedrooms: 2}, false},
		{"3:2", model.UnitSpec{Bedrooms: 3, Bathrooms: 2}, false},
		{" 1 : 1 ", model.UnitSpec{Bedrooms: 1, Bathrooms: 1}, false},
		{"two", model.UnitSpec{}, true},
		{"2:x", model.UnitSpec{}, true},
	}
	for _, tt := range tests {
		got, err := parseUnit(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseUnit(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseUnit(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestBuildRequest(t *testing.T) {
	a := analyzeOptions{field: "General Area", area: "Downtown", units: []string{"2", "3:2"}}

	req, err := buildRequest(a, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.InterestRatePct != 5 || len(req.Units) != 2 {
		t.Errorf("unexpected request: %+v", req)
	}

	a.rate, a.rateSet = 0, true
	req, err = buildRequest(a, 5)
	if err != nil || req.InterestRatePct != 0 {
		t.Errorf("expected explicit zero rate, got %v (%v)", req.InterestRatePct, err)
	}

	bad := []analyzeOptions{
		{field: "Street", area: "Downtown", units: []string{"2"}},
		{field: "General Area", area: "", units: []string{"2"}},
		{field: "General Area", area: "Downtown", units: []string{"0"}},
		{field: "General Area", area: "Downtown"},
		{field: "General Area", area: "Downtown", units: []string{"2"}, expenses: model.ExpenseInputs{Taxes: -1}},
		{field: "General Area", area: "Downtown", units: []string{"2"}, rate: -1, rateSet: true},
	}
	for i, b := range bad {
		if _, err := buildRequest(b, 5); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestLoadConfig_SourceOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "data_source:\n  url: https://example.com/rents.xlsx\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(&globalOptions{configPath: cfgPath, source: "local.csv"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.URL != "" || cfg.DataSource.Path != "local.csv" {
		t.Errorf("expected source override, got %+v", cfg.DataSource)
	}
	if name := buildLoader(cfg).Name(); name != "file:local.csv" {
		t.Errorf("expected file loader, got %s", name)
	}

	if _, err := loadConfig(&globalOptions{configPath: filepath.Join(dir, "missing.yaml")}, true); err == nil {
		t.Error("expected validation error without any source")
	}
	if _, err := loadConfig(&globalOptions{configPath: filepath.Join(dir, "missing.yaml")}, false); err != nil {
		t.Errorf("expected no error when the source is not needed: %v", err)
	}
}

func TestPlain(t *testing.T) {
	if got := plain("<b>Downtown</b>\n"); got != "Downtown\n" {
		t.Errorf("unexpected output: %q", got)
	}
}
