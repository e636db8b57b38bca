package store_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/jobscout/internal/models"
	"github.com/jonesrussell/jobscout/internal/store"
)

func TestInsertJob_AddsNewJob(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	job := testJob("Senior Python Developer", "Acme Ltd", "London")
	job.Salary = strPtr("£65,000")

	outcome, reason, err := s.InsertJob(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdded, outcome)
	assert.Equal(t, "Added new job", reason)
	require.NotZero(t, job.ID)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Python Developer", got.Title)
	assert.Equal(t, "Acme Ltd", got.Company)
	assert.Equal(t, models.StatusNew, got.Status)
	require.NotNil(t, got.Salary)
	assert.Equal(t, "£65,000", *got.Salary)
	assert.False(t, got.IsEdited)
	assert.False(t, got.AIProcessed)
}

func TestInsertJob_RefreshesNearDuplicate(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	first := testJob("Senior Python Developer", "Acme Ltd", "London")
	_, _, err := s.InsertJob(ctx, first)
	require.NoError(t, err)

	// User-owned state set between scrapes must survive the refresh.
	require.NoError(t, s.SetStatus(ctx, first.ID, models.StatusInterested))
	require.NoError(t, s.MarkApplied(ctx, first.ID, true))

	second := testJob("Senior Python Developer - Remote", "Acme Ltd", "London")
	second.Salary = strPtr("£70,000")
	second.Source = "reed"
	second.URL = "https://jobs.example.com/view/2"
	second.Description = strings.Repeat("Build and operate the ingestion platform. ", 15)
	second.ScrapedAt = first.ScrapedAt.Add(time.Hour)

	outcome, reason, err := s.InsertJob(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, outcome)
	assert.Equal(t, "Updated existing duplicate", reason)
	assert.Equal(t, first.ID, second.ID)

	got, err := s.GetJob(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Python Developer - Remote", got.Title)
	assert.Equal(t, "reed", got.Source)
	assert.Equal(t, "https://jobs.example.com/view/2", got.URL)
	require.NotNil(t, got.Salary)
	assert.Equal(t, "£70,000", *got.Salary)
	assert.True(t, got.HasFullDescription)

	assert.Equal(t, models.StatusInterested, got.Status)
	assert.True(t, got.IsApplied)
	assert.False(t, got.IsEdited)

	count, err := s.CountJobs(ctx, store.JobFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsertJob_SkipsEditedDuplicate(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	first := testJob("Senior Python Developer", "Acme Ltd", "London")
	_, _, err := s.InsertJob(ctx, first)
	require.NoError(t, err)
	require.NoError(t, s.UpdateJobFields(ctx, first.ID, map[string]any{
		"notes": "spoke to the recruiter on Tuesday",
	}))

	second := testJob("Senior Python Developer - Remote", "Acme Ltd", "London")
	outcome, reason, err := s.InsertJob(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSkipped, outcome)
	assert.Equal(t, "Skipped (duplicate of edited entry)", reason)

	got, err := s.GetJob(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Python Developer", got.Title)
	assert.True(t, got.IsEdited)
}

func TestInsertJob_DifferentLocationIsNotDuplicate(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	london := testJob("Senior Python Developer", "Acme Ltd", "London")
	_, _, err := s.InsertJob(ctx, london)
	require.NoError(t, err)

	leeds := testJob("Senior Python Developer", "Acme Ltd", "Leeds")
	outcome, _, err := s.InsertJob(ctx, leeds)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdded, outcome)
	assert.NotEqual(t, london.ID, leeds.ID)
}

func TestInsertJob_DissimilarTitleIsNotDuplicate(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.InsertJob(ctx, testJob("Senior Python Developer", "Acme Ltd", "London"))
	require.NoError(t, err)

	outcome, _, err := s.InsertJob(ctx, testJob("Data Engineer", "Acme Ltd", "London"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdded, outcome)

	count, err := s.CountJobs(ctx, store.JobFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInsertBatch_CountsOutcomes(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	batch := []*models.Job{
		testJob("Senior Python Developer", "Acme Ltd", "London"),
		testJob("Senior Python Developer Remote", "Acme Ltd", "London"),
		testJob("Data Engineer", "Initech", "Manchester"),
	}
	stats, err := s.InsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 1, stats.Updated)
	assert.Zero(t, stats.Skipped)
	assert.Zero(t, stats.Errors)
	assert.Equal(t, 3, stats.Total())
}

func TestGetJob_NotFound(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.GetJob(context.Background(), 9999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListJobs_FiltersAndSearch(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	j1 := testJob("Senior Python Developer", "Acme Ltd", "London")
	j1.ScrapedAt = base
	j2 := testJob("Data Engineer", "Initech", "Manchester")
	j2.Source = "reed"
	j2.ScrapedAt = base.Add(time.Minute)
	j3 := testJob("DevOps Engineer", "Globex", "Remote")
	j3.ScrapedAt = base.Add(2 * time.Minute)

	for _, j := range []*models.Job{j1, j2, j3} {
		_, _, err := s.InsertJob(ctx, j)
		require.NoError(t, err)
	}
	require.NoError(t, s.SetStatus(ctx, j2.ID, models.StatusInterested))

	all, err := s.ListJobs(ctx, store.JobFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "DevOps Engineer", all[0].Title)
	assert.Equal(t, "Data Engineer", all[1].Title)
	assert.Equal(t, "Senior Python Developer", all[2].Title)

	bySource, err := s.ListJobs(ctx, store.JobFilters{Source: "totaljobs"})
	require.NoError(t, err)
	assert.Len(t, bySource, 2)

	byStatus, err := s.ListJobs(ctx, store.JobFilters{Status: models.StatusInterested})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, j2.ID, byStatus[0].ID)

	search, err := s.ListJobs(ctx, store.JobFilters{Search: "python"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, j1.ID, search[0].ID)

	paged, err := s.ListJobs(ctx, store.JobFilters{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Data Engineer", paged[0].Title)

	count, err := s.CountJobs(ctx, store.JobFilters{Source: "totaljobs"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpdateJobFields(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	job := testJob("Senior Python Developer", "Acme Ltd", "London")
	_, _, err := s.InsertJob(ctx, job)
	require.NoError(t, err)

	require.NoError(t, s.UpdateJobFields(ctx, job.ID, map[string]any{
		"notes":  "phone screen booked",
		"status": models.StatusInterviewing,
	}))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEdited)
	assert.Equal(t, models.StatusInterviewing, got.Status)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "phone screen booked", *got.Notes)

	t.Run("rejects unknown column", func(t *testing.T) {
		err := s.UpdateJobFields(ctx, job.ID, map[string]any{"is_applied": true})
		require.Error(t, err)
	})

	t.Run("rejects bad status", func(t *testing.T) {
		err := s.UpdateJobFields(ctx, job.ID, map[string]any{"status": "maybe"})
		require.Error(t, err)
	})

	t.Run("rejects empty update", func(t *testing.T) {
		err := s.UpdateJobFields(ctx, job.ID, nil)
		require.Error(t, err)
	})

	t.Run("missing job", func(t *testing.T) {
		err := s.UpdateJobFields(ctx, 9999, map[string]any{"notes": "x"})
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSetStatus(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	job := testJob("Senior Python Developer", "Acme Ltd", "London")
	_, _, err := s.InsertJob(ctx, job)
	require.NoError(t, err)

	require.NoError(t, s.SetStatus(ctx, job.ID, models.StatusOffer))
	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOffer, got.Status)
	// Workflow moves are not edits; the scraper may still refresh the row.
	assert.False(t, got.IsEdited)

	require.Error(t, s.SetStatus(ctx, job.ID, "nonsense"))
	require.ErrorIs(t, s.SetStatus(ctx, 9999, models.StatusNew), store.ErrNotFound)
}

func TestJobsNeedingDescriptions(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	older := testJob("Senior Python Developer", "Acme Ltd", "London")
	older.ScrapedAt = base

	newer := testJob("Data Engineer", "Initech", "Manchester")
	newer.ScrapedAt = base.Add(time.Minute)

	full := testJob("DevOps Engineer", "Globex", "Remote")
	full.Description = strings.Repeat("Run the build and release pipelines. ", 15)

	noURL := testJob("Platform Engineer", "Umbrella", "Leeds")
	noURL.URL = ""

	for _, j := range []*models.Job{older, newer, full, noURL} {
		_, _, err := s.InsertJob(ctx, j)
		require.NoError(t, err)
	}

	jobs, err := s.JobsNeedingDescriptions(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, newer.ID, jobs[0].ID)
	assert.Equal(t, older.ID, jobs[1].ID)

	limited, err := s.JobsNeedingDescriptions(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, newer.ID, limited[0].ID)

	bySource, err := s.JobsNeedingDescriptions(ctx, 10, "reed")
	require.NoError(t, err)
	assert.Empty(t, bySource)
}

func TestUpdateDescription(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	job := testJob("Senior Python Developer", "Acme Ltd", "London")
	_, _, err := s.InsertJob(ctx, job)
	require.NoError(t, err)

	fullText := strings.Repeat("You will design and ship data services. ", 15)
	require.NoError(t, s.UpdateDescription(ctx, job.ID, fullText))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, fullText, got.Description)
	assert.True(t, got.HasFullDescription)

	remaining, err := s.JobsNeedingDescriptions(ctx, 10, "")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	require.ErrorIs(t, s.UpdateDescription(ctx, 9999, "x"), store.ErrNotFound)
}

func TestSaveAIResult(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	job := testJob("Senior Python Developer", "Acme Ltd", "Unknown")
	job.Salary = strPtr("£55,000 - £65,000")
	_, _, err := s.InsertJob(ctx, job)
	require.NoError(t, err)

	pending, err := s.JobsForAI(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	tags := models.StringList{"python", "aws"}
	entities := models.EntityMap{
		"locations":   []any{"Manchester"},
		"salary_info": "£60,000",
		"skills":      []any{"python", "terraform"},
	}
	require.NoError(t, s.SaveAIResult(ctx, job.ID, "A cleaned description.", tags, entities))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, got.AIProcessed)
	require.NotNil(t, got.CleanedDescription)
	assert.Equal(t, "A cleaned description.", *got.CleanedDescription)
	assert.Equal(t, tags, got.Tags)
	assert.Equal(t, "Manchester", got.Entities.FirstString("locations"))

	// The scraped location was the "Unknown" placeholder, so the extracted
	// one fills it; the real salary must not be overwritten.
	assert.Equal(t, "Manchester", got.Location)
	require.NotNil(t, got.Salary)
	assert.Equal(t, "£55,000 - £65,000", *got.Salary)

	pending, err = s.JobsForAI(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestStats(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	j1 := testJob("Senior Python Developer", "Acme Ltd", "London")
	j1.EmploymentType = strPtr(models.EmploymentPermanent)
	j2 := testJob("Data Engineer", "Initech", "Manchester")
	j2.Source = "reed"
	j2.EmploymentType = strPtr(models.EmploymentContract)
	j3 := testJob("DevOps Engineer", "Globex", "Remote")
	j3.Source = "reed"
	j3.EmploymentType = strPtr(models.EmploymentWFH)
	j4 := testJob("Platform Engineer", "Umbrella", "Leeds")
	j4.Source = "indeed"
	j4.EmploymentType = strPtr(models.EmploymentPermanent)

	for _, j := range []*models.Job{j1, j2, j3, j4} {
		_, _, err := s.InsertJob(ctx, j)
		require.NoError(t, err)
	}
	require.NoError(t, s.SetStatus(ctx, j1.ID, models.StatusInterested))
	require.NoError(t, s.MarkApplied(ctx, j2.ID, true))
	require.NoError(t, s.UpdateJobFields(ctx, j3.ID, map[string]any{"notes": "remote first"}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Sources)
	assert.Equal(t, 4, stats.Companies)
	assert.Equal(t, 1, stats.Applied)
	assert.Equal(t, 1, stats.Edited)
	assert.Equal(t, 1, stats.Interested)
	assert.Zero(t, stats.Interviewing)
	assert.Equal(t, 1, stats.Contract)
	assert.Equal(t, 2, stats.Permanent)
	assert.Equal(t, 1, stats.Remote)
}
