// Package models provides the value types shared across the pipeline.
package models

import (
	"time"
)

// Job statuses a record moves through once a user starts tracking it.
const (
	StatusNew          = "new"
	StatusInterested   = "interested"
	StatusApplied      = "applied"
	StatusInterviewing = "interviewing"
	StatusOffer        = "offer"
	StatusRejected     = "rejected"
	StatusArchived     = "archived"
)

// ValidStatuses lists every status SetStatus accepts.
var ValidStatuses = []string{
	StatusNew,
	StatusInterested,
	StatusApplied,
	StatusInterviewing,
	StatusOffer,
	StatusRejected,
	StatusArchived,
}

// ValidStatus reports whether s is a known job status.
func ValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Canonical employment-type vocabulary. Site adapters map these onto
// their own query tokens; "wfh" doubles as the remote marker.
const (
	EmploymentPermanent = "permanent"
	EmploymentContract  = "contract"
	EmploymentTemporary = "temporary"
	EmploymentWFH       = "wfh"
)

// Job is one aggregated listing. Scraper-origin fields are refreshed on
// re-scrape only while IsEdited is false; any user-initiated mutation sets
// IsEdited and freezes the record against scraper writes.
type Job struct {
	ID          int64   `db:"id" json:"id"`
	Title       string  `db:"title" json:"title"`
	Company     string  `db:"company" json:"company"`
	Location    string  `db:"location" json:"location"`
	Description string  `db:"description" json:"description"`
	Salary      *string `db:"salary" json:"salary,omitempty"`
	JobType     *string `db:"job_type" json:"job_type,omitempty"`
	PostedDate  *string `db:"posted_date" json:"posted_date,omitempty"`
	URL         string  `db:"url" json:"url"`
	Source      string  `db:"source" json:"source"`

	ScrapedAt time.Time `db:"scraped_at" json:"scraped_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	EmploymentType *string `db:"employment_type" json:"employment_type,omitempty"`
	Notes          *string `db:"notes" json:"notes,omitempty"`
	Status         string  `db:"status" json:"status"`
	IsApplied      bool    `db:"is_applied" json:"is_applied"`
	IsEdited       bool    `db:"is_edited" json:"is_edited"`

	HasFullDescription bool       `db:"has_full_description" json:"has_full_description"`
	AIProcessed        bool       `db:"ai_processed" json:"ai_processed"`
	CleanedDescription *string    `db:"cleaned_description" json:"cleaned_description,omitempty"`
	Tags               StringList `db:"tags" json:"tags,omitempty"`
	Entities           EntityMap  `db:"entities" json:"entities,omitempty"`
}

// HasRealLocation reports whether Location carries information an AI
// backfill must not overwrite.
func (j *Job) HasRealLocation() bool {
	return !unknownField(j.Location)
}

// HasRealSalary reports whether Salary carries information an AI backfill
// must not overwrite.
func (j *Job) HasRealSalary() bool {
	return j.Salary != nil && !unknownField(*j.Salary)
}
