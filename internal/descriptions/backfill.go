package descriptions

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/jobscout/internal/config"
	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
	"github.com/jonesrussell/jobscout/internal/store"
)

const defaultPaceInterval = 500 * time.Millisecond

// ProgressFunc is called after each job is attempted, successful or not.
type ProgressFunc func(done, total int, title string)

// Backfiller replaces listing-page teasers with the full text of each job's
// detail page.
type Backfiller struct {
	store *store.Store
	fetch *Fetcher
	log   logger.Interface
	pace  *rate.Limiter
}

func NewBackfiller(st *store.Store, fetch *Fetcher, cfg config.DescriptionsConfig, log logger.Interface) *Backfiller {
	interval := cfg.PaceInterval
	if interval <= 0 {
		interval = defaultPaceInterval
	}
	return &Backfiller{
		store: st,
		fetch: fetch,
		log:   log.With("component", "descriptions"),
		pace:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Run fetches full descriptions for up to limit jobs still carrying
// snippets, optionally restricted to one source. Fetches are paced.
// Per-job failures are counted and skipped; only store errors or
// cancellation abort the pass.
func (b *Backfiller) Run(ctx context.Context, limit int, source string, progress ProgressFunc) (models.RefreshStats, error) {
	var stats models.RefreshStats

	jobs, err := b.store.JobsNeedingDescriptions(ctx, limit, source)
	if err != nil {
		return stats, err
	}
	if len(jobs) == 0 {
		b.log.Info("No jobs need full descriptions")
		return stats, nil
	}

	b.log.Info("Fetching full descriptions", "jobs", len(jobs))

	for i, job := range jobs {
		if err := b.pace.Wait(ctx); err != nil {
			return stats, err
		}

		b.log.Debug("Fetching description",
			"n", i+1, "total", len(jobs), "title", job.Title, "url", job.URL)

		if err := b.refresh(ctx, *job); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
		} else {
			stats.Updated++
		}

		if progress != nil {
			progress(i+1, len(jobs), job.Title)
		}
	}

	b.log.Info("Description backfill complete",
		"updated", stats.Updated, "failed", stats.Failed)
	return stats, nil
}

// RefreshJob fetches the full description for one specific job. Unlike Run
// it does not consult the needs-description query: an explicit request
// refetches even a record that already passes the length cutoff.
func (b *Backfiller) RefreshJob(ctx context.Context, jobID int64) error {
	job, err := b.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	return b.refresh(ctx, *job)
}

func (b *Backfiller) refresh(ctx context.Context, job models.Job) error {
	desc, err := b.fetch.Fetch(ctx, job.URL, job.Source)
	if err != nil {
		b.log.Warn("Could not fetch description",
			"title", job.Title, "url", job.URL, "error", err)
		return err
	}

	if err := b.store.UpdateDescription(ctx, job.ID, desc); err != nil {
		b.log.Warn("Could not store description", "title", job.Title, "error", err)
		return err
	}
	return nil
}
