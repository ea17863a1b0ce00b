package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"MarketBell/internal/cronspec"

	"gopkg.in/yaml.v3"
)

// Provider kinds.
const (
	ProviderHTTP = "http"
	ProviderFile = "file"
	ProviderMock = "mock"
)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		Kind         string        `yaml:"kind"`
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		CalendarFile string        `yaml:"calendar_file"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"provider"`
	Monitor struct {
		FetchBackoff   time.Duration `yaml:"fetch_backoff"`
		ActiveInterval time.Duration `yaml:"active_interval"`
		IdleInterval   time.Duration `yaml:"idle_interval"`
	} `yaml:"monitor"`
	Schedule struct {
		RolloverCron string `yaml:"rollover_cron"`
		PruneCron    string `yaml:"prune_cron"`
	} `yaml:"schedule"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath    string `yaml:"sqlite_path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

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
	if v := os.Getenv("PROVIDER_KIND"); v != "" {
		cfg.Provider.Kind = v
	}
	if v := os.Getenv("SCHEDULE_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("SCHEDULE_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("CALENDAR_FILE"); v != "" {
		cfg.Provider.CalendarFile = v
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
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database.RetentionDays = n
		}
	}
	if v := os.Getenv("CRON_ROLLOVER"); v != "" {
		cfg.Schedule.RolloverCron = v
	}

	// Defaults
	if cfg.Provider.Kind == "" {
		if cfg.Provider.BaseURL != "" {
			cfg.Provider.Kind = ProviderHTTP
		} else {
			cfg.Provider.Kind = ProviderFile
		}
	}
	if cfg.Provider.CalendarFile == "" {
		cfg.Provider.CalendarFile = "configs/calendar.yaml"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 30 * time.Second
	}
	if cfg.Monitor.FetchBackoff == 0 {
		cfg.Monitor.FetchBackoff = 500 * time.Millisecond
	}
	if cfg.Monitor.ActiveInterval == 0 {
		cfg.Monitor.ActiveInterval = time.Second
	}
	if cfg.Monitor.IdleInterval == 0 {
		cfg.Monitor.IdleInterval = time.Minute
	}
	if cfg.Schedule.RolloverCron == "" {
		cfg.Schedule.RolloverCron = "0 0 0 * * *"
	}
	if cfg.Schedule.PruneCron == "" {
		cfg.Schedule.PruneCron = "0 30 3 * * *"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/market_bell.db"
	}
	if cfg.Database.RetentionDays == 0 {
		cfg.Database.RetentionDays = 90
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderHTTP:
		if c.Provider.BaseURL == "" {
			return fmt.Errorf("provider.base_url is required for the http provider")
		}
	case ProviderFile:
		if c.Provider.CalendarFile == "" {
			return fmt.Errorf("provider.calendar_file is required for the file provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("provider.kind %q is not one of http, file, mock", c.Provider.Kind)
	}
	if c.Provider.Timeout < 0 {
		return fmt.Errorf("provider.timeout must not be negative")
	}
	if c.Monitor.FetchBackoff <= 0 {
		return fmt.Errorf("monitor.fetch_backoff must be positive")
	}
	if c.Monitor.ActiveInterval <= 0 || c.Monitor.IdleInterval <= 0 {
		return fmt.Errorf("monitor intervals must be positive")
	}
	if _, err := cronspec.Parse(c.Schedule.RolloverCron); err != nil {
		return fmt.Errorf("schedule.rollover_cron: %w", err)
	}
	if _, err := cronspec.Parse(c.Schedule.PruneCron); err != nil {
		return fmt.Errorf("schedule.prune_cron: %w", err)
	}
	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("database.retention_days must not be negative")
	}
	return nil
}
