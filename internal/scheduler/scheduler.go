// Package scheduler drives the autonomous pipeline: a polling loop checks
// each stage's cadence and dispatches due stages onto their own
// goroutines, tracking per-stage task state. Stages never block each
// other; a long scrape must not delay a due description or AI pass.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
	"github.com/jonesrussell/jobscout/internal/store"
)

// defaultTick is how often the loop re-checks stage cadences.
const defaultTick = 10 * time.Second

// ProgressFunc receives executor progress updates for the stage's task state.
type ProgressFunc func(progress, total int, message string)

// Executor runs one stage to completion, reporting progress through the
// callback and returning a short summary for the completion message.
type Executor func(ctx context.Context, progress ProgressFunc) (string, error)

// Scheduler owns the stage cadences, task states, and the persisted
// configuration document.
type Scheduler struct {
	store *store.Store
	log   logger.Interface

	mu        sync.Mutex
	cfg       Config
	states    map[models.Stage]*TaskState
	lastRuns  map[models.Stage]time.Time
	executors map[models.Stage]Executor
	baseCtx   context.Context
	started   bool

	cancelLoop context.CancelFunc
	loopDone   chan struct{}
	running    sync.WaitGroup

	tick time.Duration
	now  func() time.Time
}

// New builds a scheduler seeded with seed, preferring the configuration
// persisted in the store when one exists.
func New(ctx context.Context, st *store.Store, seed Config, executors map[models.Stage]Executor, log logger.Interface) (*Scheduler, error) {
	s := &Scheduler{
		store:     st,
		log:       log.With("component", "scheduler"),
		cfg:       seed,
		states:    make(map[models.Stage]*TaskState, len(models.Stages)),
		lastRuns:  make(map[models.Stage]time.Time, len(models.Stages)),
		executors: executors,
		tick:      defaultTick,
		now:       time.Now,
	}
	for _, stage := range models.Stages {
		s.states[stage] = &TaskState{Status: StatusIdle}
	}

	raw, err := st.SchedulerConfigJSON(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// First run; the seed applies until someone saves a change.
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(raw, &s.cfg); err != nil {
			return nil, fmt.Errorf("failed to decode scheduler config: %w", err)
		}
	}
	return s, nil
}

// Start launches the polling loop. Executors receive ctx, so cancelling it
// asks running stages to wind down; Stop alone only halts the loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.baseCtx = ctx

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancelLoop = cancel
	s.loopDone = make(chan struct{})
	s.mu.Unlock()

	s.log.Info("Scheduler started", "tick", s.tick)
	go s.loop(loopCtx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.loopDone)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler loop stopped")
			return
		case <-ticker.C:
			s.checkDue()
		}
	}
}

// checkDue launches every stage whose cadence has elapsed.
func (s *Scheduler) checkDue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		return
	}
	for _, stage := range models.Stages {
		if !s.shouldRunLocked(stage) {
			continue
		}
		s.log.Info("Stage due", "stage", string(stage))
		s.launchLocked(stage)
	}
}

// shouldRunLocked applies the cadence check: stage enabled, not already
// running, and interval elapsed since the last completed run. A zero last
// run means the stage has never completed and is due immediately.
func (s *Scheduler) shouldRunLocked(stage models.Stage) bool {
	if !s.cfg.stageEnabled(stage) {
		return false
	}
	if s.states[stage].Status == StatusRunning {
		return false
	}
	return s.now().Sub(s.lastRuns[stage]) >= s.cfg.interval(stage)
}

// launchLocked transitions the stage to Running and spawns its executor.
// Marking Running under the mutex is what makes the "not already running"
// guard sound against concurrent triggers.
func (s *Scheduler) launchLocked(stage models.Stage) bool {
	exec, ok := s.executors[stage]
	if !ok {
		s.log.Warn("No executor registered for stage", "stage", string(stage))
		return false
	}

	started := s.now()
	*s.states[stage] = TaskState{
		Status:    StatusRunning,
		RunID:     uuid.New().String(),
		StartedAt: &started,
		Message:   fmt.Sprintf("Starting %s...", stage),
	}

	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	s.running.Add(1)
	go s.runStage(ctx, stage, exec)
	return true
}

func (s *Scheduler) runStage(ctx context.Context, stage models.Stage, exec Executor) {
	defer s.running.Done()

	log := s.log.With("stage", string(stage))
	log.Info("Stage starting")

	summary, err := exec(ctx, func(progress, total int, message string) {
		s.mu.Lock()
		state := s.states[stage]
		state.Progress, state.Total = progress, total
		if message != "" {
			state.Message = message
		}
		s.mu.Unlock()
	})

	completed := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[stage]
	state.CompletedAt = &completed
	if err != nil {
		state.Status = StatusFailed
		state.Error = err.Error()
		state.Message = "Failed: " + err.Error()
		log.Error("Stage failed", "error", err)
		return
	}

	state.Status = StatusCompleted
	state.Message = "Completed"
	if summary != "" {
		state.Message = "Completed: " + summary
	}
	// Only a run that actually finished resets the interval clock; skipped
	// checks and failures leave the stage due again.
	s.lastRuns[stage] = completed
	log.Info("Stage completed", "summary", summary)
}

// Trigger runs a stage immediately, bypassing the interval check but not
// the running guard. It reports whether the launch was accepted.
func (s *Scheduler) Trigger(stage models.Stage) bool {
	if !models.KnownStage(stage) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states[stage].Status == StatusRunning {
		return false
	}
	return s.launchLocked(stage)
}

// Stop halts the polling loop and waits for in-flight stages to finish.
// There is no mid-stage cancellation beyond the context given to Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel, done := s.cancelLoop, s.loopDone
	s.mu.Unlock()

	cancel()
	<-done
	s.running.Wait()
	s.log.Info("Scheduler stopped")
}

// State returns a copy of one stage's task state.
func (s *Scheduler) State(stage models.Stage) TaskState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[stage]; ok {
		return *state
	}
	return TaskState{Status: StatusIdle}
}

// States returns a copy of every stage's task state.
func (s *Scheduler) States() map[models.Stage]TaskState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[models.Stage]TaskState, len(s.states))
	for stage, state := range s.states {
		out[stage] = *state
	}
	return out
}

// Config returns the current configuration.
func (s *Scheduler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// UpdateConfig applies and persists a new configuration. It takes effect
// on the next tick.
func (s *Scheduler) UpdateConfig(ctx context.Context, cfg Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode scheduler config: %w", err)
	}
	if err := s.store.SaveSchedulerConfigJSON(ctx, raw); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.log.Info("Scheduler config updated",
		"enabled", cfg.Enabled,
		"scrape_interval_minutes", cfg.ScrapeIntervalMinutes,
		"description_interval_minutes", cfg.DescriptionIntervalMinutes,
		"ai_interval_minutes", cfg.AIIntervalMinutes,
	)
	return nil
}
