package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jonesrussell/jobscout/internal/models"
)

// SearchConfigs returns saved searches, optionally restricted to enabled ones.
func (s *Store) SearchConfigs(ctx context.Context, enabledOnly bool) ([]*models.SearchConfig, error) {
	query := `SELECT * FROM search_configs`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY name`

	var configs []*models.SearchConfig
	if err := s.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("failed to list search configs: %w", err)
	}
	return configs, nil
}

// GetSearchConfig returns a single saved search by id.
func (s *Store) GetSearchConfig(ctx context.Context, id int64) (*models.SearchConfig, error) {
	var cfg models.SearchConfig
	err := s.db.GetContext(ctx, &cfg, `SELECT * FROM search_configs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search config %d: %w", id, err)
	}
	return &cfg, nil
}

// CreateSearchConfig saves a new search and fills in its id.
func (s *Store) CreateSearchConfig(ctx context.Context, cfg *models.SearchConfig) error {
	if cfg.Name == "" || cfg.Keywords == "" {
		return errors.New("search config needs a name and keywords")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO search_configs (name, keywords, location, radius, employment_types, enabled)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cfg.Name, cfg.Keywords, cfg.Location, cfg.Radius, cfg.EmploymentTypes, cfg.Enabled)
	if err != nil {
		return fmt.Errorf("failed to create search config %q: %w", cfg.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read created config id: %w", err)
	}
	cfg.ID = id
	return nil
}

// UpdateSearchConfig rewrites a saved search in place.
func (s *Store) UpdateSearchConfig(ctx context.Context, cfg *models.SearchConfig) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE search_configs SET
			name = ?, keywords = ?, location = ?, radius = ?,
			employment_types = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		cfg.Name, cfg.Keywords, cfg.Location, cfg.Radius,
		cfg.EmploymentTypes, cfg.Enabled, cfg.ID)
	if err != nil {
		return fmt.Errorf("failed to update search config %d: %w", cfg.ID, err)
	}
	return checkFound(res, cfg.ID)
}

// SetSearchConfigEnabled toggles whether a saved search takes part in scrape
// passes.
func (s *Store) SetSearchConfigEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE search_configs SET enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		enabled, id)
	if err != nil {
		return fmt.Errorf("failed to toggle search config %d: %w", id, err)
	}
	return checkFound(res, id)
}

// DeleteSearchConfig removes a saved search.
func (s *Store) DeleteSearchConfig(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM search_configs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete search config %d: %w", id, err)
	}
	return checkFound(res, id)
}
