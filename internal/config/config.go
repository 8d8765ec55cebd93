package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // session time zones resolve without a system zoneinfo

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"EventIndicators/internal/dataset"
)

// Config holds all application configuration.
type Config struct {
	Dataset struct {
		Path  string `yaml:"path" toml:"path"`
		Sheet string `yaml:"sheet" toml:"sheet"`
	} `yaml:"dataset" toml:"dataset"`
	DataSource struct {
		Provider string `yaml:"provider" toml:"provider"` // "yahoo" or "rest"
		BaseURL  string `yaml:"base_url" toml:"base_url"`
		APIKey   string `yaml:"api_key" toml:"api_key"`
		Timezone string `yaml:"timezone" toml:"timezone"`
	} `yaml:"data_source" toml:"data_source"`
	Columns struct {
		Ticker    []string `yaml:"ticker" toml:"ticker"`
		Date      []string `yaml:"date" toml:"date"`
		Premarket []string `yaml:"premarket" toml:"premarket"`
		RelVolume []string `yaml:"relative_volume" toml:"relative_volume"`
	} `yaml:"columns" toml:"columns"`
	Schedule struct {
		Cron string `yaml:"cron" toml:"cron"`
	} `yaml:"schedule" toml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token" toml:"bot_token"`
		ChatID   string `yaml:"chat_id" toml:"chat_id"`
	} `yaml:"telegram" toml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	} `yaml:"database" toml:"database"`
	Log struct {
		Level  string `yaml:"level" toml:"level"`
		Format string `yaml:"format" toml:"format"` // "console" or "json"
	} `yaml:"log" toml:"log"`
	Proxy string `yaml:"proxy" toml:"proxy"`
}

// Load reads config from a YAML or TOML file (chosen by extension), then applies environment
// variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv("DATASET_SHEET"); v != "" {
		cfg.Dataset.Sheet = v
	}
	if v := os.Getenv("MARKETDATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("MARKETDATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = "量化交易.xlsx"
	}
	if cfg.Dataset.Sheet == "" && strings.EqualFold(filepath.Ext(cfg.Dataset.Path), ".xlsx") {
		cfg.Dataset.Sheet = "資料庫"
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
		if cfg.DataSource.BaseURL != "" {
			cfg.DataSource.Provider = "rest"
		}
	}
	if cfg.DataSource.Timezone == "" {
		cfg.DataSource.Timezone = "America/New_York"
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 30 17 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/event_indicators.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	switch c.DataSource.Provider {
	case "yahoo":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider must be yahoo or rest, got %q", c.DataSource.Provider)
	}
	if _, err := time.LoadLocation(c.DataSource.Timezone); err != nil {
		return fmt.Errorf("data_source.timezone: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Location returns the configured session time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DataSource.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TelegramEnabled reports whether run summaries should be pushed to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Schema applies column-name overrides on top of the default dataset schema.
func (c *Config) Schema() dataset.Schema {
	s := dataset.DefaultSchema()
	if len(c.Columns.Ticker) > 0 {
		s.Ticker = c.Columns.Ticker
	}
	if len(c.Columns.Date) > 0 {
		s.Date = c.Columns.Date
	}
	if len(c.Columns.Premarket) > 0 {
		s.Premarket = c.Columns.Premarket
	}
	if len(c.Columns.RelVolume) > 0 {
		s.RelVolume = c.Columns.RelVolume
	}
	return s
}
