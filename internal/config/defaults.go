package config

import "github.com/spf13/viper"

// setDefaults sets default configuration values. Environment variables and
// the config file override these.
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"environment": "production",
		"data_dir":    "data",
	})

	viper.SetDefault("logger", map[string]any{
		"level":        "info",
		"encoding":     "console",
		"development":  false,
		"enable_color": false,
	})

	viper.SetDefault("store", map[string]any{
		"path":         "data/jobs.db",
		"busy_timeout": "30s",
	})

	viper.SetDefault("browser", map[string]any{
		"headless":    true,
		"exec_path":   "",
		"nav_timeout": "30s",
		"min_delay":   "2s",
		"max_delay":   "5s",
		"max_retries": 3,
	})

	viper.SetDefault("scrape", map[string]any{
		"max_pages":         20,
		"incremental":       true,
		"sources":           []string{"totaljobs", "cvlibrary", "reed", "indeed"},
		"description_limit": 200,
	})

	viper.SetDefault("descriptions", map[string]any{
		"limit":           200,
		"min_full_length": 500,
		"timeout":         "30s",
		"pace_interval":   "500ms",
	})

	viper.SetDefault("ai", map[string]any{
		"base_url":               "https://integrate.api.nvidia.com/v1",
		"model":                  "moonshotai/kimi-k2-instruct-0905",
		"quota_per_key":          40,
		"window":                 "60s",
		"max_workers":            10,
		"max_wait":               "2m",
		"request_timeout":        "2m",
		"min_description_length": 50,
		"limit":                  100,
	})

	viper.SetDefault("scheduler", map[string]any{
		"enabled":                      false,
		"scrape_interval_minutes":      60,
		"description_interval_minutes": 15,
		"ai_interval_minutes":          10,
		"scrape_enabled":               true,
		"description_enabled":          true,
		"ai_enabled":                   true,
	})
}
