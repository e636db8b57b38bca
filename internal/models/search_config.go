package models

import (
	"strings"
	"time"
)

// SearchConfig is one saved search. The pipeline reads enabled configs on
// every scrape pass and never mutates them; rows are created by seeding or
// through the configs command.
type SearchConfig struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Keywords        string    `db:"keywords" json:"keywords"`
	Location        string    `db:"location" json:"location"`
	Radius          int       `db:"radius" json:"radius"`
	EmploymentTypes string    `db:"employment_types" json:"employment_types"`
	Enabled         bool      `db:"enabled" json:"enabled"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// EmploymentTypeList splits the comma-encoded employment_types column into
// canonical tokens, dropping empties.
func (c *SearchConfig) EmploymentTypeList() []string {
	if strings.TrimSpace(c.EmploymentTypes) == "" {
		return nil
	}
	parts := strings.Split(c.EmploymentTypes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
