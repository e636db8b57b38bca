package store

import (
	"context"
	"fmt"
)

// Schema statements, executed in order. Everything is IF NOT EXISTS so
// Migrate is safe to run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		company TEXT NOT NULL,
		location TEXT NOT NULL,
		description TEXT NOT NULL,
		salary TEXT,
		job_type TEXT,
		posted_date TEXT,
		url TEXT,
		source TEXT NOT NULL,
		scraped_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		is_applied BOOLEAN DEFAULT 0,
		is_edited BOOLEAN DEFAULT 0,
		employment_type TEXT,
		notes TEXT,
		status TEXT DEFAULT 'new',
		has_full_description BOOLEAN DEFAULT 0,
		ai_processed BOOLEAN DEFAULT 0,
		cleaned_description TEXT,
		tags TEXT,
		entities TEXT,
		UNIQUE(company, title, location)
	)`,
	`CREATE TABLE IF NOT EXISTS search_configs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		keywords TEXT NOT NULL,
		location TEXT NOT NULL,
		radius INTEGER DEFAULT 10,
		employment_types TEXT DEFAULT '',
		enabled BOOLEAN DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS scrape_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		search_config_id INTEGER,
		jobs_found INTEGER DEFAULT 0,
		jobs_added INTEGER DEFAULT 0,
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP,
		success BOOLEAN DEFAULT 1,
		error_message TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS scheduler_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_source ON jobs(source)`,
	`CREATE INDEX IF NOT EXISTS idx_location ON jobs(location)`,
	`CREATE INDEX IF NOT EXISTS idx_company ON jobs(company)`,
	`CREATE INDEX IF NOT EXISTS idx_status ON jobs(status)`,
	`CREATE INDEX IF NOT EXISTS idx_employment_type ON jobs(employment_type)`,
	`CREATE INDEX IF NOT EXISTS idx_scraped_at ON jobs(scraped_at DESC)`,
}

// defaultSearchConfigs are seeded once; INSERT OR IGNORE keeps user edits.
var defaultSearchConfigs = []struct {
	Name            string
	Keywords        string
	Location        string
	Radius          int
	EmploymentTypes string
}{
	{"Python AI - Remote", "python ai", "Remote", 0, "contract,permanent,wfh"},
	{"Azure AI - Remote", "azure ai", "Remote", 0, "contract,permanent,wfh"},
	{"Azure DevOps - Remote", "azure devops", "Remote", 0, "contract,permanent,wfh"},
	{"Python DevOps - Remote", "python devops", "Remote", 0, "contract,permanent,wfh"},
	{"AI DevOps - Remote", "ai devops", "Remote", 0, "contract,permanent,wfh"},
	{"Python AI - Manchester", "python ai", "Manchester", 10, "contract,permanent"},
	{"Azure AI - Manchester", "azure ai", "Manchester", 10, "contract,permanent"},
	{"Azure DevOps - Manchester", "azure devops", "Manchester", 10, "contract,permanent"},
	{"Python DevOps - Manchester", "python devops", "Manchester", 10, "contract,permanent"},
	{"AI DevOps - Manchester", "ai devops", "Manchester", 10, "contract,permanent"},
}

// Migrate creates the schema and seeds the default search configurations.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	if err := s.seedDefaultConfigs(ctx); err != nil {
		return err
	}

	s.log.Debug("Schema migrated")
	return nil
}

func (s *Store) seedDefaultConfigs(ctx context.Context) error {
	const query = `
		INSERT OR IGNORE INTO search_configs (name, keywords, location, radius, employment_types, enabled)
		VALUES (?, ?, ?, ?, ?, 1)
	`
	for _, c := range defaultSearchConfigs {
		if _, err := s.db.ExecContext(ctx, query,
			c.Name, c.Keywords, c.Location, c.Radius, c.EmploymentTypes); err != nil {
			return fmt.Errorf("failed to seed search config %q: %w", c.Name, err)
		}
	}
	return nil
}
