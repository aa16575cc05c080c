package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultInterestRatePct applies when neither the file nor the environment sets a rate.
const DefaultInterestRatePct = 5.0

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Path        string `yaml:"path"`
		URL         string `yaml:"url"`
		DriveAPI    string `yaml:"drive_api"`
		FolderID    string `yaml:"folder_id"`
		AccessToken string `yaml:"access_token"`
	} `yaml:"data_source"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr            string `yaml:"addr"`
		RateLimit       int    `yaml:"rate_limit"`        // requests per window per client
		RateLimitWindow string `yaml:"rate_limit_window"` // time.ParseDuration syntax
	} `yaml:"http"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Cache struct {
		RedisAddr string `yaml:"redis_addr"`
		TTL       string `yaml:"ttl"`
	} `yaml:"cache"`
	Analysis struct {
		InterestRatePct float64   `yaml:"interest_rate_pct"`
		Terms           []int     `yaml:"terms"`
		DownPayments    []float64 `yaml:"down_payments"`
	} `yaml:"analysis"`
	StateFile string `yaml:"state_file"`
	Proxy     string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Preset so an explicit 0 in the file or environment is kept.
	cfg.Analysis.InterestRatePct = DefaultInterestRatePct

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("RENTSCOPE_SOURCE_PATH"); v != "" {
		cfg.DataSource.Path = v
	}
	if v := os.Getenv("RENTSCOPE_SOURCE_URL"); v != "" {
		cfg.DataSource.URL = v
	}
	if v := os.Getenv("DRIVE_FOLDER_ID"); v != "" {
		cfg.DataSource.FolderID = v
	}
	if v := os.Getenv("DRIVE_TOKEN"); v != "" {
		cfg.DataSource.AccessToken = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.StateFile = v
	}
	if v := os.Getenv("INTEREST_RATE_PCT"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.InterestRatePct = rate
		}
	}

	// Defaults
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 0 6 * * *"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.RateLimit == 0 {
		cfg.HTTP.RateLimit = 60
	}
	if cfg.HTTP.RateLimitWindow == "" {
		cfg.HTTP.RateLimitWindow = "1m"
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "1h"
	}
	if len(cfg.Analysis.Terms) == 0 {
		cfg.Analysis.Terms = []int{20, 25, 30}
	}
	if len(cfg.Analysis.DownPayments) == 0 {
		cfg.Analysis.DownPayments = []float64{20, 25, 30, 35, 40, 45, 50}
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "data/dataset_state.json"
	}
	if cfg.DataSource.FolderID != "" && cfg.DataSource.DriveAPI == "" {
		cfg.DataSource.DriveAPI = "https://www.googleapis.com/drive/v3"
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.DataSource.Path == "" && c.DataSource.URL == "" && c.DataSource.FolderID == "" {
		return fmt.Errorf("one of data_source.path, data_source.url or data_source.folder_id is required")
	}
	if c.DataSource.FolderID != "" && c.DataSource.AccessToken == "" {
		return fmt.Errorf("data_source.access_token is required with data_source.folder_id")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Analysis.InterestRatePct < 0 {
		return fmt.Errorf("analysis.interest_rate_pct must not be negative")
	}
	for _, term := range c.Analysis.Terms {
		if term <= 0 {
			return fmt.Errorf("analysis.terms must be positive, got %d", term)
		}
	}
	for _, dp := range c.Analysis.DownPayments {
		if dp < 0 || dp >= 100 {
			return fmt.Errorf("analysis.down_payments must be in [0, 100), got %.2f", dp)
		}
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http.rate_limit must not be negative")
	}
	return nil
}

// TelegramEnabled reports whether chat notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
