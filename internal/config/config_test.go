package config

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dataset.Sheet != "資料庫" || cfg.DataSource.Provider != "yahoo" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Schedule.Cron == "" || cfg.Log.Level != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, "config.yaml", `
dataset:
  path: events.csv
data_source:
  base_url: http://localhost:8080
columns:
  premarket: [Premarket Volume]
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dataset.Sheet != "" {
		t.Errorf("csv dataset should not get a default sheet, got %q", cfg.Dataset.Sheet)
	}
	if cfg.DataSource.Provider != "rest" {
		t.Errorf("provider = %q, want rest when base_url is set", cfg.DataSource.Provider)
	}
	if got := cfg.Schema().Premarket; len(got) != 1 || got[0] != "Premarket Volume" {
		t.Errorf("premarket override = %v", got)
	}
	if got := cfg.Schema().Ticker; len(got) == 0 || got[0] != "公司代碼" {
		t.Errorf("ticker should keep its default, got %v", got)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := write(t, "config.toml", `
[dataset]
path = "book.xlsx"
sheet = "Events"

[telegram]
bot_token = "t"
chat_id = "1"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dataset.Sheet != "Events" || !cfg.TelegramEnabled() {
		t.Errorf("toml not applied: %+v", cfg)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DATASET_PATH", "from-env.csv")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	path := write(t, "config.yaml", "dataset:\n  path: from-file.xlsx\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dataset.Path != "from-env.csv" {
		t.Errorf("path = %q, want the env value", cfg.Dataset.Path)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("chat id without token should fail validation")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }, true},
		{"rest without url", func(c *Config) { c.DataSource.Provider = "rest" }, true},
		{"bad timezone", func(c *Config) { c.DataSource.Timezone = "Mars/Olympus" }, true},
		{"no dataset", func(c *Config) { c.Dataset.Path = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
