package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"issuesync/internal/models"
)

const activeContextKey = "active_context"

// ActiveContext returns the persisted work context; the zero value when unset.
func (s *Store) ActiveContext(ctx context.Context) (models.WorkContext, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM app_state WHERE key = ?", activeContextKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WorkContext{}, nil
	}
	if err != nil {
		return models.WorkContext{}, err
	}
	var wc models.WorkContext
	if err := json.Unmarshal([]byte(raw), &wc); err != nil {
		return models.WorkContext{}, err
	}
	return wc, nil
}

// SetActiveContext persists the work context.
func (s *Store) SetActiveContext(ctx context.Context, wc models.WorkContext) error {
	raw, err := json.Marshal(wc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, activeContextKey, string(raw), formatTime(time.Now()))
	return err
}
