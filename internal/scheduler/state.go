package scheduler

import (
	"time"

	"github.com/jonesrussell/jobscout/internal/config"
	"github.com/jonesrussell/jobscout/internal/models"
)

// Status is a stage's lifecycle position: Idle -> Running -> Completed or
// Failed, then eligible again.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// TaskState tracks one stage's most recent run. The scheduler owns it
// exclusively and overwrites it on each launch.
type TaskState struct {
	Status      Status     `json:"status"`
	RunID       string     `json:"run_id,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Progress    int        `json:"progress"`
	Total       int        `json:"total"`
	Message     string     `json:"message"`
	Error       string     `json:"error,omitempty"`
}

// Config is the durable scheduler configuration, persisted as a single
// JSON document in the store.
type Config struct {
	Enabled                    bool `json:"enabled"`
	ScrapeIntervalMinutes      int  `json:"scrape_interval_minutes"`
	DescriptionIntervalMinutes int  `json:"description_interval_minutes"`
	AIIntervalMinutes          int  `json:"ai_interval_minutes"`
	ScrapeEnabled              bool `json:"scrape_enabled"`
	DescriptionEnabled         bool `json:"description_enabled"`
	AIEnabled                  bool `json:"ai_enabled"`
}

// DefaultConfig returns the out-of-the-box schedule: autonomous mode off,
// hourly scrapes, description and AI passes on shorter cadences.
func DefaultConfig() Config {
	return Config{
		Enabled:                    false,
		ScrapeIntervalMinutes:      60,
		DescriptionIntervalMinutes: 15,
		AIIntervalMinutes:          10,
		ScrapeEnabled:              true,
		DescriptionEnabled:         true,
		AIEnabled:                  true,
	}
}

// SeedConfig maps the application-config values onto a Config, used until
// a persisted row exists.
func SeedConfig(sc config.SchedulerConfig) Config {
	cfg := DefaultConfig()
	cfg.Enabled = sc.Enabled
	if sc.ScrapeIntervalMinutes > 0 {
		cfg.ScrapeIntervalMinutes = sc.ScrapeIntervalMinutes
	}
	if sc.DescriptionIntervalMinutes > 0 {
		cfg.DescriptionIntervalMinutes = sc.DescriptionIntervalMinutes
	}
	if sc.AIIntervalMinutes > 0 {
		cfg.AIIntervalMinutes = sc.AIIntervalMinutes
	}
	cfg.ScrapeEnabled = sc.ScrapeEnabled
	cfg.DescriptionEnabled = sc.DescriptionEnabled
	cfg.AIEnabled = sc.AIEnabled
	return cfg
}

// interval returns the stage's cadence.
func (c Config) interval(stage models.Stage) time.Duration {
	switch stage {
	case models.StageScrape:
		return time.Duration(c.ScrapeIntervalMinutes) * time.Minute
	case models.StageDescriptions:
		return time.Duration(c.DescriptionIntervalMinutes) * time.Minute
	case models.StageAI:
		return time.Duration(c.AIIntervalMinutes) * time.Minute
	default:
		return time.Hour
	}
}

// stageEnabled reports whether the stage participates in scheduled runs.
func (c Config) stageEnabled(stage models.Stage) bool {
	switch stage {
	case models.StageScrape:
		return c.ScrapeEnabled
	case models.StageDescriptions:
		return c.DescriptionEnabled
	case models.StageAI:
		return c.AIEnabled
	default:
		return false
	}
}
