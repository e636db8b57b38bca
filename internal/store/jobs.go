package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonesrussell/jobscout/internal/models"
)

// Reasons reported alongside insert outcomes.
const (
	reasonAdded         = "Added new job"
	reasonUpdated       = "Updated existing duplicate"
	reasonSkippedEdited = "Skipped (duplicate of edited entry)"
	reasonExactMatch    = "Duplicate (exact match)"
)

const insertJobQuery = `
	INSERT OR IGNORE INTO jobs (
		title, company, location, description, salary, job_type,
		posted_date, url, source, scraped_at, status, employment_type, notes
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type candidateRow struct {
	ID       int64  `db:"id"`
	Title    string `db:"title"`
	IsEdited bool   `db:"is_edited"`
}

// InsertJob inserts a scraped job, deduplicating against existing rows.
// Rows with the same company and location whose titles are more than 85%
// similar count as the same job: the stored row is refreshed with the new
// scrape unless a human has edited it. The returned reason is suitable for
// logging.
func (s *Store) InsertJob(ctx context.Context, job *models.Job) (models.InsertOutcome, string, error) {
	var candidates []candidateRow
	err := s.db.SelectContext(ctx, &candidates,
		`SELECT id, title, is_edited FROM jobs WHERE company = ? AND location = ?`,
		job.Company, job.Location)
	if err != nil {
		return models.OutcomeSkipped, "", fmt.Errorf("failed to query duplicate candidates: %w", err)
	}

	normalized := normalizeTitle(job.Title)
	for _, cand := range candidates {
		if similarityRatio(normalized, normalizeTitle(cand.Title)) <= DuplicateThreshold {
			continue
		}
		if cand.IsEdited {
			return models.OutcomeSkipped, reasonSkippedEdited, nil
		}
		if err := s.refreshJob(ctx, cand.ID, job); err != nil {
			return models.OutcomeSkipped, "", err
		}
		job.ID = cand.ID
		return models.OutcomeUpdated, reasonUpdated, nil
	}

	scrapedAt := job.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, insertJobQuery,
		job.Title, job.Company, job.Location, job.Description, job.Salary,
		job.JobType, job.PostedDate, job.URL, job.Source, scrapedAt,
		insertStatus(job.Status), job.EmploymentType, job.Notes)
	if err != nil {
		return models.OutcomeSkipped, "", fmt.Errorf("failed to insert job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.OutcomeSkipped, "", fmt.Errorf("failed to read insert result: %w", err)
	}
	// The unique index on (company, title, location) catches concurrent
	// inserts of byte-identical rows that the candidate scan missed.
	if affected == 0 {
		return models.OutcomeSkipped, reasonExactMatch, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.OutcomeSkipped, "", fmt.Errorf("failed to read inserted id: %w", err)
	}
	job.ID = id
	return models.OutcomeAdded, reasonAdded, nil
}

func insertStatus(status string) string {
	if status == "" {
		return models.StatusNew
	}
	return status
}

// refreshJob overwrites the scrape-owned columns of an existing row with the
// latest values. Human-owned columns (status, notes, applied) are untouched.
func (s *Store) refreshJob(ctx context.Context, id int64, job *models.Job) error {
	fullDescription := len(job.Description) >= minFullDescription
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET
			title = ?, description = ?, salary = ?, job_type = ?,
			posted_date = ?, url = ?, source = ?, scraped_at = ?,
			employment_type = ?, has_full_description = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		job.Title, job.Description, job.Salary, job.JobType,
		job.PostedDate, job.URL, job.Source, job.ScrapedAt,
		job.EmploymentType, fullDescription, id)
	if err != nil {
		return fmt.Errorf("failed to refresh duplicate job %d: %w", id, err)
	}
	return nil
}

// InsertBatch inserts a page of scraped jobs, accumulating per-outcome counts.
func (s *Store) InsertBatch(ctx context.Context, jobs []*models.Job) (models.BatchStats, error) {
	var stats models.BatchStats
	for _, job := range jobs {
		outcome, reason, err := s.InsertJob(ctx, job)
		if err != nil {
			stats.Errors++
			s.log.Error("failed to store job",
				"title", job.Title,
				"company", job.Company,
				"error", err)
			continue
		}
		stats.Record(outcome)
		s.log.Debug("stored job",
			"title", job.Title,
			"company", job.Company,
			"outcome", reason)
	}
	return stats, nil
}

// GetJob returns a single job by id.
func (s *Store) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	var job models.Job
	err := s.db.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %d: %w", id, err)
	}
	return &job, nil
}

// JobFilters narrows ListJobs and CountJobs. Zero values mean "any".
type JobFilters struct {
	Status         string
	Source         string
	Company        string
	Location       string
	EmploymentType string
	Applied        *bool
	Edited         *bool
	Search         string
	Limit          int
	Offset         int
}

func (f JobFilters) clauses() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, f.Source)
	}
	if f.Company != "" {
		conds = append(conds, "company = ?")
		args = append(args, f.Company)
	}
	if f.Location != "" {
		conds = append(conds, "location LIKE ?")
		args = append(args, "%"+f.Location+"%")
	}
	if f.EmploymentType != "" {
		conds = append(conds, "employment_type = ?")
		args = append(args, f.EmploymentType)
	}
	if f.Applied != nil {
		conds = append(conds, "is_applied = ?")
		args = append(args, *f.Applied)
	}
	if f.Edited != nil {
		conds = append(conds, "is_edited = ?")
		args = append(args, *f.Edited)
	}
	if f.Search != "" {
		conds = append(conds, "(title LIKE ? OR company LIKE ? OR description LIKE ?)")
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat, pat)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListJobs returns jobs matching the filters, newest scrape first.
func (s *Store) ListJobs(ctx context.Context, filters JobFilters) ([]*models.Job, error) {
	where, args := filters.clauses()
	query := `SELECT * FROM jobs` + where + ` ORDER BY scraped_at DESC, id DESC`
	if filters.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filters.Limit, filters.Offset)
	}
	var jobs []*models.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// CountJobs returns the number of jobs matching the filters.
func (s *Store) CountJobs(ctx context.Context, filters JobFilters) (int, error) {
	where, args := filters.clauses()
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM jobs`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// editableColumns are the columns UpdateJobFields accepts. Anything else
// in the field map is rejected rather than silently dropped.
var editableColumns = map[string]struct{}{
	"title":           {},
	"company":         {},
	"location":        {},
	"description":     {},
	"salary":          {},
	"job_type":        {},
	"posted_date":     {},
	"url":             {},
	"status":          {},
	"employment_type": {},
	"notes":           {},
}

// UpdateJobFields applies a set of manual edits to a job and marks it edited,
// which pins it against future scrape refreshes.
func (s *Store) UpdateJobFields(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return errors.New("no fields to update")
	}
	sets := make([]string, 0, len(fields)+2)
	args := make([]any, 0, len(fields)+1)
	for col, val := range fields {
		if _, ok := editableColumns[col]; !ok {
			return fmt.Errorf("field %q is not editable", col)
		}
		if col == "status" {
			status, ok := val.(string)
			if !ok || !models.ValidStatus(status) {
				return fmt.Errorf("invalid status %v", val)
			}
		}
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	sets = append(sets, "is_edited = 1", "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := "UPDATE jobs SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job %d: %w", id, err)
	}
	return checkFound(res, id)
}

// MarkApplied flips the applied flag on a job.
func (s *Store) MarkApplied(ctx context.Context, id int64, applied bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET is_applied = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		applied, id)
	if err != nil {
		return fmt.Errorf("failed to mark job %d applied: %w", id, err)
	}
	return checkFound(res, id)
}

// SetStatus moves a job through the tracking workflow.
func (s *Store) SetStatus(ctx context.Context, id int64, status string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	if err != nil {
		return fmt.Errorf("failed to set status on job %d: %w", id, err)
	}
	return checkFound(res, id)
}

func checkFound(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	return nil
}

// JobsNeedingDescriptions returns jobs whose stored description is shorter
// than the full-description cutoff and which carry a detail-page URL,
// newest first. An empty source matches all sources.
func (s *Store) JobsNeedingDescriptions(ctx context.Context, limit int, source string) ([]*models.Job, error) {
	query := `
		SELECT * FROM jobs
		WHERE length(description) < ? AND url IS NOT NULL AND url != ''`
	args := []any{minFullDescription}
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}
	query += `
		ORDER BY scraped_at DESC
		LIMIT ?`
	args = append(args, limit)

	var jobs []*models.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query jobs needing descriptions: %w", err)
	}
	return jobs, nil
}

// UpdateDescription replaces a job's description with the full text fetched
// from its detail page.
func (s *Store) UpdateDescription(ctx context.Context, id int64, description string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET
			description = ?, has_full_description = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		description, len(description) >= minFullDescription, id)
	if err != nil {
		return fmt.Errorf("failed to update description for job %d: %w", id, err)
	}
	return checkFound(res, id)
}

// JobsForAI returns jobs that have not been through enrichment yet,
// newest first.
func (s *Store) JobsForAI(ctx context.Context, limit int) ([]*models.Job, error) {
	var jobs []*models.Job
	err := s.db.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs
		WHERE ai_processed = 0 OR ai_processed IS NULL
		ORDER BY scraped_at DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs for enrichment: %w", err)
	}
	return jobs, nil
}

// SaveAIResult stores the enrichment output for a job and marks it processed.
// When the model extracted a location or salary and the scraped value is
// missing or "Unknown", the extracted value fills the gap.
func (s *Store) SaveAIResult(ctx context.Context, id int64, cleaned string, tags models.StringList, entities models.EntityMap) error {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}

	sets := []string{
		"cleaned_description = ?",
		"tags = ?",
		"entities = ?",
		"ai_processed = 1",
		"updated_at = CURRENT_TIMESTAMP",
	}
	args := []any{cleaned, tags, entities}

	if loc := entities.FirstString("locations"); loc != "" && !job.HasRealLocation() {
		sets = append(sets, "location = ?")
		args = append(args, loc)
	}
	if sal := entities.FirstString("salary_info"); sal != "" && !job.HasRealSalary() {
		sets = append(sets, "salary = ?")
		args = append(args, sal)
	}
	args = append(args, id)

	query := "UPDATE jobs SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save enrichment for job %d: %w", id, err)
	}
	return checkFound(res, id)
}

// Stats aggregates the headline numbers shown by the status command.
func (s *Store) Stats(ctx context.Context) (*models.StoreStats, error) {
	var stats models.StoreStats
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COUNT(DISTINCT source) AS sources,
			COUNT(DISTINCT company) AS companies,
			COALESCE(SUM(CASE WHEN is_applied = 1 THEN 1 ELSE 0 END), 0) AS applied,
			COALESCE(SUM(CASE WHEN is_edited = 1 THEN 1 ELSE 0 END), 0) AS edited,
			COALESCE(SUM(CASE WHEN status = 'interested' THEN 1 ELSE 0 END), 0) AS interested,
			COALESCE(SUM(CASE WHEN status = 'interviewing' THEN 1 ELSE 0 END), 0) AS interviewing,
			COALESCE(SUM(CASE WHEN employment_type = 'contract' THEN 1 ELSE 0 END), 0) AS contract,
			COALESCE(SUM(CASE WHEN employment_type = 'permanent' THEN 1 ELSE 0 END), 0) AS permanent,
			COALESCE(SUM(CASE WHEN employment_type = 'wfh' THEN 1 ELSE 0 END), 0) AS remote
		FROM jobs`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate job stats: %w", err)
	}
	return &stats, nil
}
