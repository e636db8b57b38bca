package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/jobscout/internal/models"
)

// LogScrape appends one audit row for a finished scrape run.
func (s *Store) LogScrape(ctx context.Context, entry *models.ScrapeLogEntry) error {
	startedAt := entry.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	completedAt := entry.CompletedAt
	if completedAt == nil {
		now := time.Now().UTC()
		completedAt = &now
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scrape_log (source, search_config_id, jobs_found, jobs_added,
			started_at, completed_at, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Source, entry.SearchConfigID, entry.JobsFound, entry.JobsAdded,
		startedAt, completedAt, entry.Success, entry.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to log scrape for %s: %w", entry.Source, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read scrape log id: %w", err)
	}
	entry.ID = id
	return nil
}

// RecentScrapes returns the latest audit rows, newest first.
func (s *Store) RecentScrapes(ctx context.Context, limit int) ([]*models.ScrapeLogEntry, error) {
	var entries []*models.ScrapeLogEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT * FROM scrape_log
		ORDER BY started_at DESC, id DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent scrapes: %w", err)
	}
	return entries, nil
}

// ScrapeCountSince counts scrape runs started at or after the cutoff,
// optionally for one source. The status command uses it to show roughly how
// busy the last hour was; it says nothing about external quota state.
func (s *Store) ScrapeCountSince(ctx context.Context, cutoff time.Time, source string) (int, error) {
	query := `SELECT COUNT(*) FROM scrape_log WHERE started_at >= ?`
	args := []any{cutoff}
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count recent scrapes: %w", err)
	}
	return count, nil
}

// ResetScrapeLog clears the audit trail, for one source or for all when
// source is empty. The hourly activity counter starts from zero afterwards.
func (s *Store) ResetScrapeLog(ctx context.Context, source string) (int64, error) {
	query := `DELETE FROM scrape_log`
	args := []any{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to reset scrape log: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read reset result: %w", err)
	}
	return removed, nil
}
