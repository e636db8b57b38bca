package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SchedulerConfigJSON returns the persisted scheduler settings document.
// The table holds a single row; ErrNotFound means nothing has been saved yet.
func (s *Store) SchedulerConfigJSON(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := s.db.GetContext(ctx, &raw,
		`SELECT config_json FROM scheduler_config WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduler config: %w", err)
	}
	return raw, nil
}

// SaveSchedulerConfigJSON replaces the persisted scheduler settings document.
func (s *Store) SaveSchedulerConfigJSON(ctx context.Context, raw []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduler_config (id, config_json, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			config_json = excluded.config_json,
			updated_at = CURRENT_TIMESTAMP`,
		raw)
	if err != nil {
		return fmt.Errorf("failed to save scheduler config: %w", err)
	}
	return nil
}
