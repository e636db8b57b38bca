package models

import "time"

// ScrapeLogEntry is one append-only audit row per scrape run. Entries are
// never updated after insert; the hourly activity counter scans them.
type ScrapeLogEntry struct {
	ID             int64      `db:"id" json:"id"`
	Source         string     `db:"source" json:"source"`
	SearchConfigID *int64     `db:"search_config_id" json:"search_config_id,omitempty"`
	JobsFound      int        `db:"jobs_found" json:"jobs_found"`
	JobsAdded      int        `db:"jobs_added" json:"jobs_added"`
	StartedAt      time.Time  `db:"started_at" json:"started_at"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Success        bool       `db:"success" json:"success"`
	ErrorMessage   *string    `db:"error_message" json:"error_message,omitempty"`
}
