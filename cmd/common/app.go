package common

import (
	"context"
	"fmt"

	"github.com/jonesrussell/jobscout/internal/pipeline"
	"github.com/jonesrussell/jobscout/internal/store"
)

// App is a fully wired pipeline plus the store beneath it.
type App struct {
	Deps     CommandDeps
	Store    *store.Store
	Pipeline *pipeline.Pipeline
}

// NewApp loads dependencies, opens and migrates the store, and wires the
// pipeline on top. The caller owns Close.
func NewApp(ctx context.Context) (*App, error) {
	deps, err := NewCommandDeps()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(deps.Config.Store, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	p, err := pipeline.New(ctx, deps.Config, st, deps.Logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &App{Deps: deps, Store: st, Pipeline: p}, nil
}

// Close releases everything NewApp opened.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Deps.Logger.Warn("Failed to close store", "error", err)
	}
}
