package ai

import (
	"context"
	"sync"

	"github.com/jonesrussell/jobscout/internal/config"
	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
	"github.com/jonesrussell/jobscout/internal/store"
)

const (
	defaultMaxWorkers = 10
	defaultMinLength  = 50
)

// ProgressFunc receives per-job completion updates during a batch.
type ProgressFunc func(done, total int, title string)

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// Processor runs the enrichment stage: a bounded worker pool pushes jobs
// through the model while the key pool serializes quota. The pool size is
// deliberately larger than the key count since network latency dominates.
type Processor struct {
	store      *store.Store
	pool       *KeyPool
	client     *Client
	log        logger.Interface
	maxWorkers int
	minLength  int
}

// NewProcessor wires the stage together. It fails with ErrNoKeys when no
// credentials are configured, so callers can keep the rest of the pipeline
// usable without them.
func NewProcessor(st *store.Store, cfg config.AIConfig, log logger.Interface) (*Processor, error) {
	pool, err := NewKeyPool(cfg, log)
	if err != nil {
		return nil, err
	}

	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = defaultMaxWorkers
	}
	minLength := cfg.MinDescriptionLength
	if minLength <= 0 {
		minLength = defaultMinLength
	}

	return &Processor{
		store:      st,
		pool:       pool,
		client:     NewClient(cfg, log),
		log:        log.With("component", "ai"),
		maxWorkers: workers,
		minLength:  minLength,
	}, nil
}

// ProcessBatch enriches jobs in parallel and reports per-batch counts. One
// job's failure never aborts its siblings; cancellation stops the workers
// between jobs and returns the counts accumulated so far.
func (p *Processor) ProcessBatch(ctx context.Context, jobs []*models.Job, progress ProgressFunc) (models.ProcessStats, error) {
	var stats models.ProcessStats
	if len(jobs) == 0 {
		p.log.Info("No jobs awaiting enrichment")
		return stats, nil
	}

	workers := p.maxWorkers
	if len(jobs) < workers {
		workers = len(jobs)
	}
	p.log.Info("Starting enrichment batch", "jobs", len(jobs), "workers", workers)

	queue := make(chan *models.Job, len(jobs))
	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	var (
		mu   sync.Mutex
		done int
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				if ctx.Err() != nil {
					return
				}
				result := p.processJob(ctx, job)

				mu.Lock()
				done++
				switch result {
				case outcomeProcessed:
					stats.Processed++
				case outcomeSkipped:
					stats.Skipped++
				case outcomeFailed:
					stats.Failed++
				}
				if progress != nil {
					progress(done, len(jobs), job.Title)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	p.log.Info("Enrichment batch complete",
		"processed", stats.Processed,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return stats, ctx.Err()
}

func (p *Processor) processJob(ctx context.Context, job *models.Job) outcome {
	if len(job.Description) < p.minLength {
		p.log.Debug("Skipping job, description too short",
			"job_id", job.ID, "length", len(job.Description))
		return outcomeSkipped
	}

	key, name, err := p.pool.Acquire(ctx)
	if err != nil {
		p.log.Warn("No key capacity for job", "job_id", job.ID, "error", err)
		return outcomeFailed
	}
	p.log.Debug("Acquired credential", "key", name, "title", truncate(job.Title, 50))

	res, err := p.client.Process(ctx, key, job.Title, job.Company, job.Description)
	if err != nil {
		p.log.Warn("Enrichment call failed", "job_id", job.ID, "error", err)
		return outcomeFailed
	}

	// An empty cleaned_description falls back to the original text so the
	// record still flips to processed.
	cleaned := res.CleanedDescription
	if cleaned == "" {
		cleaned = job.Description
	}
	if err := p.store.SaveAIResult(ctx, job.ID, cleaned, res.Tags, res.Entities); err != nil {
		p.log.Warn("Failed to save enrichment", "job_id", job.ID, "error", err)
		return outcomeFailed
	}
	return outcomeProcessed
}

// RateStatus reports per-key window usage.
func (p *Processor) RateStatus() []KeyStatus {
	return p.pool.Status()
}
