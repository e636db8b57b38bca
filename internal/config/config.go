// Package config provides configuration management for the application.
// Values come from config.yaml, environment variables, and defaults, in
// that order of precedence, all merged through viper.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config represents the application configuration.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Store        StoreConfig        `mapstructure:"store"`
	Browser      BrowserConfig      `mapstructure:"browser"`
	Scrape       ScrapeConfig       `mapstructure:"scrape"`
	Descriptions DescriptionsConfig `mapstructure:"descriptions"`
	AI           AIConfig           `mapstructure:"ai"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	DataDir     string `mapstructure:"data_dir"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
	EnableColor bool   `mapstructure:"enable_color"`
}

// StoreConfig holds the SQLite store settings.
type StoreConfig struct {
	// Path is the database file path; ":memory:" opens a throwaway store.
	Path string `mapstructure:"path"`
	// BusyTimeout is how long writers wait on a locked database before
	// failing. Concurrent source sessions rely on this rather than
	// application-level locking.
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// BrowserConfig holds fetch-layer settings.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless"`
	// ExecPath overrides the Chrome binary location when set.
	ExecPath string `mapstructure:"exec_path"`
	// NavTimeout bounds a single navigation attempt.
	NavTimeout time.Duration `mapstructure:"nav_timeout"`
	// MinDelay..MaxDelay is the inter-request pacing window, measured
	// from the previous request's completion.
	MinDelay   time.Duration `mapstructure:"min_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// ScrapeConfig holds scrape-stage settings.
type ScrapeConfig struct {
	MaxPages int `mapstructure:"max_pages"`
	// Incremental persists each card as it is extracted instead of
	// batching at the end of a source run.
	Incremental bool     `mapstructure:"incremental"`
	Sources     []string `mapstructure:"sources"`
	// DescriptionLimit caps the second-pass description backfill that
	// follows a scrape run.
	DescriptionLimit int `mapstructure:"description_limit"`
}

// DescriptionsConfig holds description-backfill settings.
type DescriptionsConfig struct {
	Limit int `mapstructure:"limit"`
	// MinFullLength is the description length below which a record still
	// counts as needing a full description.
	MinFullLength int           `mapstructure:"min_full_length"`
	Timeout       time.Duration `mapstructure:"timeout"`
	// PaceInterval spaces successive fetches.
	PaceInterval time.Duration `mapstructure:"pace_interval"`
}

// AIConfig holds AI-stage settings.
type AIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	// Keys is populated from the environment when empty.
	Keys []string `mapstructure:"keys"`
	// QuotaPerKey requests per Window per key.
	QuotaPerKey int           `mapstructure:"quota_per_key"`
	Window      time.Duration `mapstructure:"window"`
	MaxWorkers  int           `mapstructure:"max_workers"`
	// MaxWait bounds the total time one job waits for key capacity.
	MaxWait        time.Duration `mapstructure:"max_wait"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// MinDescriptionLength below which a job is skipped, not processed.
	MinDescriptionLength int `mapstructure:"min_description_length"`
	Limit                int `mapstructure:"limit"`
}

// SchedulerConfig holds the seed values for the persisted scheduler
// configuration; once a row exists in the store it wins over these.
type SchedulerConfig struct {
	Enabled                    bool `mapstructure:"enabled"`
	ScrapeIntervalMinutes      int  `mapstructure:"scrape_interval_minutes"`
	DescriptionIntervalMinutes int  `mapstructure:"description_interval_minutes"`
	AIIntervalMinutes          int  `mapstructure:"ai_interval_minutes"`
	ScrapeEnabled              bool `mapstructure:"scrape_enabled"`
	DescriptionEnabled         bool `mapstructure:"description_enabled"`
	AIEnabled                  bool `mapstructure:"ai_enabled"`
}

// Validate checks the configuration before any component starts.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return errors.New("store: path is required")
	}
	if c.Browser.MinDelay > c.Browser.MaxDelay {
		return fmt.Errorf("browser: min_delay %s exceeds max_delay %s",
			c.Browser.MinDelay, c.Browser.MaxDelay)
	}
	if c.Browser.MaxRetries < 1 {
		return errors.New("browser: max_retries must be at least 1")
	}
	if c.Scrape.MaxPages < 1 {
		return errors.New("scrape: max_pages must be at least 1")
	}
	if c.AI.QuotaPerKey < 1 {
		return errors.New("ai: quota_per_key must be at least 1")
	}
	if c.AI.Window <= 0 {
		return errors.New("ai: window must be positive")
	}
	if c.AI.MaxWorkers < 1 {
		return errors.New("ai: max_workers must be at least 1")
	}
	if c.Scheduler.ScrapeIntervalMinutes < 1 ||
		c.Scheduler.DescriptionIntervalMinutes < 1 ||
		c.Scheduler.AIIntervalMinutes < 1 {
		return errors.New("scheduler: stage intervals must be at least 1 minute")
	}
	return nil
}
