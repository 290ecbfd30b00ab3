package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"issuesync/internal/models"
)

// CreateProject inserts a new project.
func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	if project == nil {
		return fmt.Errorf("project is required")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		project.ID, project.Name, formatTime(project.CreatedAt), formatTime(project.UpdatedAt),
	)
	if isUniqueConstraint(err, "projects.id") {
		return ErrProjectExists
	}
	return err
}

// UpsertProject creates the project or renames an existing one.
func (s *Store) UpsertProject(ctx context.Context, project *models.Project) error {
	if project == nil {
		return fmt.Errorf("project is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
	`, project.ID, project.Name, formatTime(project.CreatedAt), formatTime(project.UpdatedAt))
	return err
}

// GetProject returns a project by id, or nil when it does not exist.
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, created_at, updated_at FROM projects WHERE id = ?", id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return project, err
}

// ListProjects returns all projects ordered by id.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at, updated_at FROM projects ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, rows.Err()
}

// ProviderConfig returns the project's provider config, or nil when none is set.
func (s *Store) ProviderConfig(ctx context.Context, projectID string) (*models.ProviderConfig, error) {
	var cfg models.ProviderConfig
	var enabled, autoAdd, autoPoll int
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT project_id, enabled, auto_add_to_backlog, auto_poll, repo, updated_at
		FROM provider_configs WHERE project_id = ?
	`, projectID).Scan(&cfg.ProjectID, &enabled, &autoAdd, &autoPoll, &cfg.Repo, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.Enabled = enabled != 0
	cfg.AutoAddToBacklog = autoAdd != 0
	cfg.AutoPoll = autoPoll != 0
	if cfg.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetProviderConfig creates or replaces the project's provider config.
func (s *Store) SetProviderConfig(ctx context.Context, cfg *models.ProviderConfig) error {
	if cfg == nil || cfg.ProjectID == "" {
		return fmt.Errorf("provider config project id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_configs (project_id, enabled, auto_add_to_backlog, auto_poll, repo, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			enabled = excluded.enabled,
			auto_add_to_backlog = excluded.auto_add_to_backlog,
			auto_poll = excluded.auto_poll,
			repo = excluded.repo,
			updated_at = excluded.updated_at
	`,
		cfg.ProjectID,
		boolInt(cfg.Enabled),
		boolInt(cfg.AutoAddToBacklog),
		boolInt(cfg.AutoPoll),
		cfg.Repo,
		formatTime(cfg.UpdatedAt),
	)
	if isForeignKeyConstraint(err) {
		return fmt.Errorf("project %s: %w", cfg.ProjectID, ErrNotFound)
	}
	return err
}

func scanProject(scanner interface {
	Scan(dest ...any) error
}) (*models.Project, error) {
	var project models.Project
	var createdAt, updatedAt string
	if err := scanner.Scan(&project.ID, &project.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if project.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if project.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &project, nil
}
