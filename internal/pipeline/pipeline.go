// Package pipeline composes the scrape, description, and AI stages over one
// shared store, and owns the scheduler that runs them in the background. The
// CLI drives the same operations directly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/jobscout/internal/ai"
	"github.com/jonesrussell/jobscout/internal/browser"
	"github.com/jonesrussell/jobscout/internal/config"
	"github.com/jonesrussell/jobscout/internal/descriptions"
	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
	"github.com/jonesrussell/jobscout/internal/scheduler"
	"github.com/jonesrussell/jobscout/internal/sites"
	"github.com/jonesrussell/jobscout/internal/store"
)

const (
	// activityWindow is the lookback for the informational scrape counter.
	activityWindow = time.Hour
	// busySourceThreshold is the hourly run count above which a source is
	// flagged as heavily scraped. It never blocks a run.
	busySourceThreshold = 10
)

// ProgressFunc receives completion updates as a stage works through a batch.
type ProgressFunc func(done, total int, message string)

// pageSession is what a source goroutine holds for its lifetime: a rendered
// page plus teardown. *browser.Session implements it; tests substitute fakes.
type pageSession interface {
	sites.Page
	Close()
}

// Pipeline wires the stages together. Each scrape source gets its own
// browser session; all stages share the one store.
type Pipeline struct {
	cfg      *config.Config
	store    *store.Store
	log      logger.Interface
	registry *sites.Registry
	backfill *descriptions.Backfiller
	// processor is nil when no AI credentials are configured; the other
	// stages keep working without it.
	processor *ai.Processor
	sched     *scheduler.Scheduler

	newSession func(ctx context.Context, cfg config.BrowserConfig, log logger.Interface) (pageSession, error)
}

// New wires the stages over one store. Missing AI credentials disable the AI
// stage but leave scraping and description backfill usable.
func New(ctx context.Context, cfg *config.Config, st *store.Store, log logger.Interface) (*Pipeline, error) {
	p := &Pipeline{
		cfg:      cfg,
		store:    st,
		log:      log.With("component", "pipeline"),
		registry: sites.NewRegistry(log),
		backfill: descriptions.NewBackfiller(st, descriptions.NewFetcher(cfg.Descriptions, log), cfg.Descriptions, log),
		newSession: func(ctx context.Context, bc config.BrowserConfig, log logger.Interface) (pageSession, error) {
			return browser.NewSession(ctx, bc, log)
		},
	}

	processor, err := ai.NewProcessor(st, cfg.AI, log)
	switch {
	case errors.Is(err, ai.ErrNoKeys):
		p.log.Warn("No AI credentials configured; the AI stage is disabled")
	case err != nil:
		return nil, err
	default:
		p.processor = processor
	}

	sched, err := scheduler.New(ctx, st, scheduler.SeedConfig(cfg.Scheduler), p.executors(), log)
	if err != nil {
		return nil, err
	}
	p.sched = sched

	return p, nil
}

// executors binds each stage to its operation for the scheduler.
func (p *Pipeline) executors() map[models.Stage]scheduler.Executor {
	return map[models.Stage]scheduler.Executor{
		models.StageScrape: func(ctx context.Context, progress scheduler.ProgressFunc) (string, error) {
			results, err := p.RunScrape(ctx, nil, nil, ProgressFunc(progress))
			if err != nil {
				return "", err
			}
			return summarize(results), nil
		},
		models.StageDescriptions: func(ctx context.Context, progress scheduler.ProgressFunc) (string, error) {
			stats, err := p.RunDescriptions(ctx, 0, "", ProgressFunc(progress))
			if err != nil {
				return "", err
			}
			return stats.String(), nil
		},
		models.StageAI: func(ctx context.Context, progress scheduler.ProgressFunc) (string, error) {
			stats, err := p.RunAI(ctx, 0, ProgressFunc(progress))
			if err != nil {
				return "", err
			}
			return stats.String(), nil
		},
	}
}

// RunScrape runs every requested search against every requested source, one
// browser session and one goroutine per source. An empty sources slice means
// the configured ones; an empty configIDs slice means every enabled search.
// Per-source failures land in the returned results; only setup problems or
// caller cancellation fail the run as a whole.
func (p *Pipeline) RunScrape(ctx context.Context, sources []string, configIDs []int64, progress ProgressFunc) ([]models.SourceResult, error) {
	adapters, err := p.resolveAdapters(sources)
	if err != nil {
		return nil, err
	}

	configs, err := p.store.SearchConfigs(ctx, true)
	if err != nil {
		return nil, err
	}
	configs = filterConfigs(configs, configIDs)
	if len(configs) == 0 {
		p.log.Info("No enabled search configs; nothing to scrape")
		return nil, nil
	}

	total := len(adapters) * len(configs)
	p.log.Info("Starting scrape", "sources", len(adapters), "configs", len(configs))

	var (
		mu        sync.Mutex
		completed int
	)
	advance := func(n int, message string) {
		mu.Lock()
		completed += n
		done := completed
		mu.Unlock()
		if progress != nil {
			progress(done, total, message)
		}
	}

	perSource := make([][]models.SourceResult, len(adapters))
	var wg sync.WaitGroup
	for i, adapter := range adapters {
		i, adapter := i, adapter
		wg.Add(1)
		go func() {
			defer wg.Done()
			perSource[i] = p.scrapeSource(ctx, adapter, configs, advance)
		}()
	}
	wg.Wait()

	results := make([]models.SourceResult, 0, total)
	for _, rs := range perSource {
		results = append(results, rs...)
	}

	p.log.Info("Scrape complete", "summary", summarize(results))
	return results, ctx.Err()
}

// scrapeSource works through every search config on one source, then
// backfills descriptions for the records it just found. It owns its browser
// session for the whole run.
func (p *Pipeline) scrapeSource(ctx context.Context, adapter sites.Adapter, configs []*models.SearchConfig, advance func(n int, message string)) []models.SourceResult {
	name := adapter.Name()
	log := p.log.With("source", name)

	cutoff := time.Now().UTC().Add(-activityWindow)
	if count, err := p.store.ScrapeCountSince(ctx, cutoff, name); err == nil && count >= busySourceThreshold {
		log.Warn("Source scraped heavily in the past hour", "runs", count)
	}

	session, err := p.newSession(ctx, p.cfg.Browser, p.log)
	if err != nil {
		log.Warn("Could not start a browser session", "error", err)
		advance(len(configs), name+": session failed")
		return []models.SourceResult{{Source: name, Err: err}}
	}
	defer session.Close()

	results := make([]models.SourceResult, 0, len(configs))
	for _, sc := range configs {
		if ctx.Err() != nil {
			return results
		}
		results = append(results, p.scrapeConfig(ctx, adapter, session, sc))
		advance(1, fmt.Sprintf("%s: %s", name, sc.Name))
	}

	if limit := p.cfg.Scrape.DescriptionLimit; limit > 0 && ctx.Err() == nil {
		if _, err := p.backfill.Run(ctx, limit, name, nil); err != nil && ctx.Err() == nil {
			log.Warn("Post-scrape description backfill failed", "error", err)
		}
	}
	return results
}

// scrapeConfig runs one search and persists what it finds. Every attempt
// leaves a scrape_log row, success or not.
func (p *Pipeline) scrapeConfig(ctx context.Context, adapter sites.Adapter, page sites.Page, sc *models.SearchConfig) models.SourceResult {
	res := models.SourceResult{Source: adapter.Name(), Config: sc.Name}

	q := sites.Query{
		Keywords:        sc.Keywords,
		Location:        sc.Location,
		Radius:          sc.Radius,
		EmploymentTypes: sc.EmploymentTypeList(),
	}

	var tally models.BatchStats
	if p.cfg.Scrape.Incremental {
		q.Save = func(ctx context.Context, job models.Job) error {
			outcome, _, err := p.store.InsertJob(ctx, &job)
			if err != nil {
				tally.Errors++
				return err
			}
			tally.Record(outcome)
			return nil
		}
	}

	started := time.Now().UTC()
	jobs, err := adapter.Search(ctx, page, q, p.cfg.Scrape.MaxPages)
	res.Found = len(jobs)
	if p.cfg.Scrape.Incremental {
		res.Added = tally.Added
	}
	if err != nil {
		res.Err = err
		p.logScrape(ctx, sc, res, started)
		return res
	}

	if !p.cfg.Scrape.Incremental {
		refs := make([]*models.Job, len(jobs))
		for i := range jobs {
			refs[i] = &jobs[i]
		}
		stats, err := p.store.InsertBatch(ctx, refs)
		if err != nil {
			res.Err = err
		} else {
			res.Added = stats.Added
		}
	}

	p.logScrape(ctx, sc, res, started)
	return res
}

// logScrape appends the audit row for one search run.
func (p *Pipeline) logScrape(ctx context.Context, sc *models.SearchConfig, res models.SourceResult, started time.Time) {
	entry := &models.ScrapeLogEntry{
		Source:         res.Source,
		SearchConfigID: &sc.ID,
		JobsFound:      res.Found,
		JobsAdded:      res.Added,
		StartedAt:      started,
		Success:        res.Err == nil,
	}
	if res.Err != nil {
		msg := res.Err.Error()
		entry.ErrorMessage = &msg
	}
	if err := p.store.LogScrape(ctx, entry); err != nil {
		p.log.Warn("Could not record scrape run", "source", res.Source, "error", err)
	}
}

// RunDescriptions fetches full descriptions for jobs still carrying listing
// teasers, optionally restricted to one source. A non-positive limit falls
// back to the configured one.
func (p *Pipeline) RunDescriptions(ctx context.Context, limit int, source string, progress ProgressFunc) (models.RefreshStats, error) {
	if limit <= 0 {
		limit = p.cfg.Descriptions.Limit
	}
	return p.backfill.Run(ctx, limit, source, descriptions.ProgressFunc(progress))
}

// RefreshJobDescription fetches the full description for one job by id,
// whether or not the stored one passes the length cutoff.
func (p *Pipeline) RefreshJobDescription(ctx context.Context, jobID int64) error {
	return p.backfill.RefreshJob(ctx, jobID)
}

// RunAI pushes unprocessed jobs through the model. A non-positive limit
// falls back to the configured one.
func (p *Pipeline) RunAI(ctx context.Context, limit int, progress ProgressFunc) (models.ProcessStats, error) {
	var stats models.ProcessStats
	if p.processor == nil {
		return stats, fmt.Errorf("ai stage unavailable: %w", ai.ErrNoKeys)
	}
	if limit <= 0 {
		limit = p.cfg.AI.Limit
	}

	jobs, err := p.store.JobsForAI(ctx, limit)
	if err != nil {
		return stats, err
	}
	return p.processor.ProcessBatch(ctx, jobs, ai.ProgressFunc(progress))
}

// ProcessJob runs the AI pass over one job by id, whether or not it has
// been processed before.
func (p *Pipeline) ProcessJob(ctx context.Context, jobID int64) (models.ProcessStats, error) {
	var stats models.ProcessStats
	if p.processor == nil {
		return stats, fmt.Errorf("ai stage unavailable: %w", ai.ErrNoKeys)
	}

	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		return stats, err
	}
	return p.processor.ProcessBatch(ctx, []*models.Job{job}, nil)
}

// StartScheduler begins background stage scheduling. Stages the scheduler
// launches wind down when ctx is canceled.
func (p *Pipeline) StartScheduler(ctx context.Context) {
	p.sched.Start(ctx)
}

// StopScheduler halts scheduling and waits for in-flight stages to finish.
func (p *Pipeline) StopScheduler() {
	p.sched.Stop()
}

// TriggerStage queues an immediate run of one stage, bypassing its interval.
// False means the stage is unknown or already running.
func (p *Pipeline) TriggerStage(stage models.Stage) bool {
	return p.sched.Trigger(stage)
}

// TaskStates returns a snapshot of every stage's latest run.
func (p *Pipeline) TaskStates() map[models.Stage]scheduler.TaskState {
	return p.sched.States()
}

// SchedulerConfig returns the active scheduling configuration.
func (p *Pipeline) SchedulerConfig() scheduler.Config {
	return p.sched.Config()
}

// UpdateSchedulerConfig persists a new scheduling configuration and applies
// it from the next tick.
func (p *Pipeline) UpdateSchedulerConfig(ctx context.Context, cfg scheduler.Config) error {
	return p.sched.UpdateConfig(ctx, cfg)
}

// ScrapeActivity reports how many scrape runs the last hour saw, for one
// source or for all of them when source is empty. The count is informational
// and never gates a run.
func (p *Pipeline) ScrapeActivity(ctx context.Context, source string) (int, error) {
	return p.store.ScrapeCountSince(ctx, time.Now().UTC().Add(-activityWindow), source)
}

// ResetRateAccounting clears the scrape audit trail for one source, or for
// all sources when source is empty, and returns how many rows went.
func (p *Pipeline) ResetRateAccounting(ctx context.Context, source string) (int64, error) {
	return p.store.ResetScrapeLog(ctx, source)
}

// RateStatus reports per-credential AI quota usage. Empty when the AI stage
// is disabled.
func (p *Pipeline) RateStatus() []ai.KeyStatus {
	if p.processor == nil {
		return nil
	}
	return p.processor.RateStatus()
}

func (p *Pipeline) resolveAdapters(names []string) ([]sites.Adapter, error) {
	if len(names) == 0 {
		names = p.cfg.Scrape.Sources
	}
	if len(names) == 0 {
		return p.registry.All(), nil
	}

	adapters := make([]sites.Adapter, 0, len(names))
	for _, name := range names {
		a, ok := p.registry.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q (known: %s)",
				name, strings.Join(p.registry.Names(), ", "))
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

func filterConfigs(configs []*models.SearchConfig, ids []int64) []*models.SearchConfig {
	if len(ids) == 0 {
		return configs
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]*models.SearchConfig, 0, len(configs))
	for _, c := range configs {
		if want[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// summarize folds per-source results into a one-line status message.
func summarize(results []models.SourceResult) string {
	var found, added, failed int
	for _, r := range results {
		found += r.Found
		added += r.Added
		if r.Err != nil {
			failed++
		}
	}
	s := fmt.Sprintf("found=%d added=%d", found, added)
	if failed > 0 {
		s += fmt.Sprintf(" failed=%d", failed)
	}
	return s
}
